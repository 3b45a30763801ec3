package builtin

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/tidwall/gjson"
)

// FromJson flattens a top-level JSON object into a string-valued map,
// grounded on tidwall/gjson. Nested objects/arrays are re-serialized to
// their own JSON text rather than recursively flattened, since the
// engine's map values are scalar-only (spec.md 3).
func FromJson(doc string) map[string]string {
	out := map[string]string{}
	if !gjson.Valid(doc) {
		return out
	}
	gjson.Parse(doc).ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}

// ToJson serializes a flat string map back to a JSON object, grounded on
// encoding/json -- gjson is read-only, so object construction falls back
// to the standard library the way the teacher's config loading would.
func ToJson(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// JsonValue extracts one gjson path expression as a string.
func JsonValue(doc, path string) string {
	return gjson.Get(doc, path).String()
}

// JsonQuery extracts a gjson path expression that resolves to an array,
// returning each element's string form.
func JsonQuery(doc, path string) []string {
	res := gjson.Get(doc, path)
	if !res.IsArray() {
		if res.Exists() {
			return []string{res.String()}
		}
		return nil
	}
	out := make([]string, 0, len(res.Array()))
	for _, v := range res.Array() {
		out = append(out, v.String())
	}
	return out
}

// HtmlValue returns the text of the first element matching a CSS
// selector, grounded on PuerkitoBio/goquery.
func HtmlValue(doc, selector string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(d.Find(selector).First().Text())
}

// HtmlQuery returns the text of every element matching a CSS selector.
func HtmlQuery(doc, selector string) []string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	var out []string
	d.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// XmlValue returns the text of the first node matching an XPath
// expression, grounded on antchfx/xmlquery.
func XmlValue(doc, xpath string) string {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	n := xmlquery.FindOne(root, xpath)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

// XmlQuery returns the text of every node matching an XPath expression.
func XmlQuery(doc, xpath string) []string {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	nodes := xmlquery.Find(root, xpath)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, strings.TrimSpace(n.InnerText()))
	}
	return out
}

// FromCsv parses one CSV-quoted record into its fields, grounded on
// encoding/csv -- kept on the standard library per spec.md's own Record
// source design note, which already treats encoding/csv as the right tool
// for quoted tabular parsing rather than a hand-rolled splitter.
func FromCsv(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	return r.Read()
}

// ToCsv re-quotes a field slice into one CSV record line (no trailing
// newline).
func ToCsv(fields []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\r\n"), w.Error()
}
