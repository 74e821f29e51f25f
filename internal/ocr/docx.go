package ocr

import (
	"html"
	"regexp"

	"github.com/nguyenthenguyen/docx"
)

var (
	reDocxParaEnd = regexp.MustCompile(`</w:p>`)
	reDocxBreak   = regexp.MustCompile(`<w:(?:br|cr)[^>]*/>`)
	reDocxTab     = regexp.MustCompile(`<w:tab[^>]*/>`)
	reXMLTag      = regexp.MustCompile(`<[^>]+>`)
)

func (r *Reader) readDOCX(path string) (Result, error) {
	d, err := docx.ReadDocxFile(path)
	if err != nil {
		return Result{Method: "docx"}, err
	}
	defer d.Close()
	return Result{Text: docxText(d.Editable().GetContent()), Pages: 1, Method: "docx"}, nil
}

// docxText flattens WordprocessingML body XML into paragraphs of text.
func docxText(xml string) string {
	s := reDocxParaEnd.ReplaceAllString(xml, "\n")
	s = reDocxBreak.ReplaceAllString(s, "\n")
	s = reDocxTab.ReplaceAllString(s, "\t")
	s = reXMLTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
