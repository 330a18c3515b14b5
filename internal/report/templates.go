// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

// builtinLaTeX is the default LaTeX report layout: an evidence matrix
// in a longtable, one section per paper summary, and an enumerated
// appendix of contributions.
const builtinLaTeX = `\documentclass[11pt]{article}
\usepackage{longtable}
\usepackage{booktabs}
\usepackage[margin=1in]{geometry}

\title{ {{- latex .Title -}} }
\author{ {{- latex .Author -}} }
\date{ {{- latex .Date -}} }

\begin{document}
\maketitle
{{if .Abstract}}
\begin{abstract}
{{latex .Abstract}}
\end{abstract}
{{end}}
{{if and .IncludeMatrix .Rows}}
\section{Evidence Matrix}

\begin{longtable}{{"{"}}l{{range slice .Header 1}}l{{end}}{{"}"}}
\toprule
{{range $i, $h := .Header}}{{if $i}} & {{end}}\textbf{ {{- latex $h -}} }{{end}} \\
\midrule
\endhead
{{range .Rows}}{{range $i, $c := .}}{{if $i}} & {{end}}{{latex (truncate 60 $c)}}{{end}} \\
{{end}}\bottomrule
\end{longtable}
{{end}}
{{if .IncludeSummaries}}
\section{Paper Summaries}
{{range .Papers}}{{if .OnePager}}
\subsection{ {{- latex .Title -}} }
{{if .BibtexKey}}\cite{ {{- .BibtexKey -}} }
{{end}}
{{latex .OnePager}}
{{end}}{{end}}
{{end}}
{{if .IncludeAppendix}}
\appendix
\section{Contributions}

\begin{enumerate}
{{range .Papers}}{{if .AppendixRow}}\item {{if .BibtexKey}}\cite{ {{- .BibtexKey -}} } {{end}}{{latex .AppendixRow}}
{{end}}{{end}}\end{enumerate}
{{end}}
\bibliographystyle{ {{- .BibliographyStyle -}} }
\bibliography{references}

\end{document}
`

// builtinMarkdown is the default Markdown report layout with a
// pipe-table evidence matrix.
const builtinMarkdown = `# {{.Title}}

*{{.Author}}, {{.Date}}*
{{if .Abstract}}
{{.Abstract}}
{{end}}
{{if and .IncludeMatrix .Rows}}
## Evidence Matrix

|{{range .Header}} {{.}} |{{end}}
|{{range .Header}}---|{{end}}
{{range .Rows}}|{{range .}} {{truncate 60 .}} |{{end}}
{{end}}{{end}}
{{if .IncludeSummaries}}
## Paper Summaries
{{range .Papers}}{{if .OnePager}}
### {{.Title}}{{if .BibtexKey}} [@{{.BibtexKey}}]{{end}}

{{.OnePager}}
{{end}}{{end}}{{end}}
{{if .IncludeAppendix}}
## Appendix: Contributions
{{range .Papers}}{{if .AppendixRow}}
- {{if .BibtexKey}}[@{{.BibtexKey}}] {{end}}{{.AppendixRow}}
{{end}}{{end}}{{end}}
`
