package leads

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Encode serializes fs as a request document: a lead root holding one section per group,
// lead first, each field an element whose text is its value. Both sections are always
// present.
func Encode(fs *FieldSet) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{Name: xml.Name{Local: requestRoot}}
	if err := enc.EncodeToken(root); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	for _, g := range Groups {
		section := xml.StartElement{Name: xml.Name{Local: g.Table()}}
		if err := enc.EncodeToken(section); err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		for _, f := range fs.Fields(g) {
			if err := encodeField(enc, f); err != nil {
				return "", fmt.Errorf("encode field %s: %w", f.Name, err)
			}
		}
		if err := enc.EncodeToken(section.End()); err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	return buf.String(), nil
}

func encodeField(enc *xml.Encoder, f Field) error {
	el := xml.StartElement{Name: xml.Name{Local: f.Name}}
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(f.Value)); err != nil {
		return err
	}
	return enc.EncodeToken(el.End())
}
