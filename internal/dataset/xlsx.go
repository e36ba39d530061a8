package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadXLSX loads one worksheet of an .xlsx workbook. The sheet is picked by
// opt.SheetName, otherwise by the 1-based opt.SheetIndex (default first sheet).
func ReadXLSX(filePath string, opt Options) (*Table, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	name := filepath.Base(filePath)
	book, err := openWorkbook(zr)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	target, err := book.sheetPath(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sheetXML, err := zipEntry(zr, target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	shared, err := sharedStrings(zr)
	if err != nil {
		return nil, fmt.Errorf("read shared strings: %w", err)
	}

	rows := newRowReader(sheetXML, shared)
	header, ok := rows.Next()
	if !ok || len(header) == 0 {
		return New(name, nil, nil, opt.Number), nil
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var records [][]string
	seen := 0
	for {
		row, ok := rows.Next()
		if !ok {
			break
		}
		seen++
		if len(records) >= maxRows {
			continue
		}
		records = append(records, row)
	}
	t := New(name, header, records, opt.Number)
	t.SourceRows = seen
	return t, nil
}

type workbookSheet struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	RelID   string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type workbook struct {
	Sheets []workbookSheet `xml:"sheets>sheet"`
	rels   map[string]string
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func openWorkbook(zr *zip.Reader) (*workbook, error) {
	raw, err := zipEntry(zr, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	var wb workbook
	if err := xml.Unmarshal(raw, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook.xml: %w", err)
	}
	wb.rels = map[string]string{}
	if relsXML, err := zipEntry(zr, "xl/_rels/workbook.xml.rels"); err == nil {
		var rs relationships
		if err := xml.Unmarshal(relsXML, &rs); err != nil {
			return nil, fmt.Errorf("parse workbook rels: %w", err)
		}
		for _, r := range rs.Items {
			if r.ID != "" && r.Target != "" {
				wb.rels[r.ID] = r.Target
			}
		}
	}
	return &wb, nil
}

// sheetPath resolves the zip entry of the requested worksheet.
func (wb *workbook) sheetPath(sheetName string, sheetIndex int) (string, error) {
	if sheetName != "" {
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := wb.rels[s.RelID]; ok {
					return sheetEntryPath(rel), nil
				}
			}
		}
		names := make([]string, len(wb.Sheets))
		for i, s := range wb.Sheets {
			names[i] = s.Name
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", sheetName, strings.Join(names, ", "))
	}
	idx := sheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range wb.Sheets {
		if s.SheetID == idx {
			if rel, ok := wb.rels[s.RelID]; ok {
				return sheetEntryPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

// sheetEntryPath turns a relationship target ("/xl/worksheets/sheet1.xml" or
// "worksheets/sheet1.xml") into a zip entry name.
func sheetEntryPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

var errNoEntry = errors.New("entry not found")

func zipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, errNoEntry)
}

func sharedStrings(zr *zip.Reader) ([]string, error) {
	raw, err := zipEntry(zr, "xl/sharedStrings.xml")
	if errors.Is(err, errNoEntry) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		out []string
		buf strings.Builder
		inT bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// rowReader streams <row> elements of a worksheet as dense string slices.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newRowReader(data []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *rowReader) Next() ([]string, bool) {
	var (
		row   []string
		inRow bool
	)
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = row[:0]
			case inRow && se.Name.Local == "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := len(row)
				if ref != "" {
					if c := columnIndex(ref); c >= 0 {
						col = c
					}
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = r.cellValue(typ)
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

// cellValue consumes tokens up to </c>, capturing <v> or inline <is><t>.
func (r *rowReader) cellValue(typ string) string {
	var val strings.Builder
	capture := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val.String()
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				val.Write(se)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v", "t":
				capture = false
			case "c":
				if typ == "s" {
					idx, err := strconv.Atoi(strings.TrimSpace(val.String()))
					if err != nil || idx < 0 || idx >= len(r.shared) {
						return ""
					}
					return r.shared[idx]
				}
				return val.String()
			}
		}
	}
}

// columnIndex converts a cell reference like "C12" into a 0-based column index.
func columnIndex(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}
