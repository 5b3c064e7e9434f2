package wls

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"
	xsdNS     = "http://www.w3.org/2001/XMLSchema"
	xsiNS     = "http://www.w3.org/2001/XMLSchema-instance"
)

// buildEnvelope writes an rpc style SOAP 1.1 request. Parameters are sent as escaped
// xsd:string values named param0, param1 and so on.
func buildEnvelope(namespace, operation string, params ...string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	envelope := xml.StartElement{
		Name: xml.Name{Local: "SOAP-ENV:Envelope"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:SOAP-ENV"}, Value: soapEnvNS},
			{Name: xml.Name{Local: "xmlns:ns1"}, Value: namespace},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: xsdNS},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNS},
		},
	}
	body := xml.StartElement{Name: xml.Name{Local: "SOAP-ENV:Body"}}
	call := xml.StartElement{Name: xml.Name{Local: "ns1:" + operation}}

	tokens := []xml.Token{envelope, body, call}
	for i, p := range params {
		param := xml.StartElement{
			Name: xml.Name{Local: fmt.Sprintf("param%d", i)},
			Attr: []xml.Attr{{Name: xml.Name{Local: "xsi:type"}, Value: "xsd:string"}},
		}
		tokens = append(tokens, param, xml.CharData(p), param.End())
	}
	tokens = append(tokens, call.End(), body.End(), envelope.End())

	for _, tok := range tokens {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, fmt.Errorf("encode %s envelope: %w", operation, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", operation, err)
	}
	return buf.Bytes(), nil
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault  *FaultError `xml:"Fault"`
		Result *rpcResult  `xml:",any"`
	} `xml:"Body"`
}

type rpcResult struct {
	XMLName xml.Name
	Parts   []rpcPart `xml:",any"`
}

type rpcPart struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Inner   string `xml:",innerxml"`
}

// value returns the part as a string. Escaped or CDATA text is unescaped; literal child
// markup is returned as is.
func (p rpcPart) value() string {
	inner := strings.TrimSpace(p.Inner)
	if strings.HasPrefix(inner, "<") && !strings.HasPrefix(inner, "<![CDATA[") {
		return inner
	}
	return p.Text
}

// parseEnvelope extracts the first return part of an rpc response, or the fault it carries.
func parseEnvelope(data []byte) (string, *FaultError, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode soap envelope: %w", err)
	}
	if env.Body.Fault != nil {
		return "", env.Body.Fault, nil
	}
	if env.Body.Result == nil {
		return "", nil, fmt.Errorf("decode soap envelope: empty body")
	}
	if len(env.Body.Result.Parts) == 0 {
		return "", nil, fmt.Errorf("decode soap envelope: %s has no return value", env.Body.Result.XMLName.Local)
	}
	return env.Body.Result.Parts[0].value(), nil, nil
}
