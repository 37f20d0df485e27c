// Package pdftest writes small valid PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Marker is the text drawn on page n (1-based). It appears verbatim in the
// page's uncompressed content stream, so tests can find it in any PDF built
// from that page.
func Marker(n int) string {
	return fmt.Sprintf("(Page %d)", n)
}

// Uniform returns a PDF of n pages, each carrying payload bytes of filler.
func Uniform(n, payload int) []byte {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = payload
	}
	return Generate(sizes...)
}

// Generate returns a PDF with one page per entry of payloads. Each page's
// content stream draws Marker(i+1) and is padded with a comment of the given
// number of bytes. Zero entries yields a PDF with an empty page tree.
func Generate(payloads ...int) []byte {
	n := len(payloads)
	fontObj := 3 + 2*n
	var buf bytes.Buffer
	offsets := make([]int, fontObj+1)

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, size := range payloads {
		pageObj, contentObj := 3+2*i, 4+2*i
		obj(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentObj))

		var content bytes.Buffer
		fmt.Fprintf(&content, "BT /F1 24 Tf 72 720 Td %s Tj ET\n", Marker(i+1))
		if size > 0 {
			content.WriteByte('%')
			content.Write(bytes.Repeat([]byte{'x'}, size))
			content.WriteByte('\n')
		}
		offsets[contentObj] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n", contentObj, content.Len())
		buf.Write(content.Bytes())
		buf.WriteString("\nendstream\nendobj\n")
	}

	obj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", fontObj+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= fontObj; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", fontObj+1, xref)
	return buf.Bytes()
}
