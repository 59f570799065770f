package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"image"
	"io"
	"regexp"
	"strconv"
)

// pageObject is the minimal information extractFigures needs about one
// page: its content stream object numbers, the name→object-number map of
// its /Resources /XObject dictionary, and its page height in PDF points
// (needed to flip content-stream Y coordinates into raster pixel space).
type pageObject struct {
	contentObjNums []int
	xobjectByName  map[string]int
	heightPts      float64
}

// imagePlacement is one Image XObject's footprint in page-pixel coordinates.
// BBox is plain image.Rectangle; callers clamp it to the raster's own
// bounds with its built-in Intersect before cropping. SourceBytes and
// SourceMimeType are set when the XObject's own stream holds an
// already-encoded image (DCTDecode/JPXDecode) that can be used verbatim
// instead of re-encoding a raster crop.
type imagePlacement struct {
	BBox           image.Rectangle
	SourceBytes    []byte
	SourceMimeType string
}

var (
	objPattern       = regexp.MustCompile(`(?s)(\d+)\s+0\s+obj(.*?)endobj`)
	pageTypePattern  = regexp.MustCompile(`/Type\s*/Page\b`)
	contentsPattern  = regexp.MustCompile(`/Contents\s*(\[[^\]]*\]|\d+\s+0\s+R)`)
	resourcesPattern = regexp.MustCompile(`/Resources\s*(\d+\s+0\s+R|<<.*?>>)`)
	xobjectPattern   = regexp.MustCompile(`(?s)/XObject\s*<<(.*?)>>`)
	xobjectEntryPat  = regexp.MustCompile(`/(\S+)\s+(\d+)\s+0\s+R`)
	refNumPattern    = regexp.MustCompile(`(\d+)\s+0\s+R`)
	subtypeImagePat  = regexp.MustCompile(`/Subtype\s*/Image\b`)
	streamPattern    = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	flateFilterPat   = regexp.MustCompile(`/Filter\s*/FlateDecode\b`)
	dctFilterPat     = regexp.MustCompile(`/Filter\s*/DCTDecode\b`)
	jpxFilterPat     = regexp.MustCompile(`/Filter\s*/JPXDecode\b`)
	mediaBoxPattern  = regexp.MustCompile(`/MediaBox\s*\[\s*([+-]?[0-9.]+)\s+([+-]?[0-9.]+)\s+([+-]?[0-9.]+)\s+([+-]?[0-9.]+)`)
)

// defaultPageHeightPts is the US Letter page height, used as a last resort
// when no /MediaBox can be found anywhere in the document.
const defaultPageHeightPts = 792.0

// scanPageObjects walks raw for page objects (by /Type /Page) in the order
// they appear in the file, which matches page order for the common case of
// a linear, single-pass-written scanned PDF. Object streams, encryption,
// and cross-reference streams are not handled; callers degrade to no
// figures for those documents (Open's caller comment).
func scanPageObjects(raw []byte) ([]pageObject, error) {
	objects := indexObjects(raw)

	var pages []pageObject
	for _, num := range sortedKeys(objects) {
		body := objects[num]
		if !pageTypePattern.Match(body) {
			continue
		}
		pages = append(pages, pageObject{
			contentObjNums: parseRefList(contentsPattern.FindSubmatch(body)),
			xobjectByName:  parseXObjectDict(body, objects),
			heightPts:      pageHeightPts(body, objects),
		})
	}
	return pages, nil
}

// mediaBoxHeight parses a /MediaBox [x0 y0 x1 y1] array out of body and
// returns its height in points (y1-y0). Degenerate or missing boxes report
// ok=false so callers can fall back.
func mediaBoxHeight(body []byte) (float64, bool) {
	m := mediaBoxPattern.FindSubmatch(body)
	if m == nil {
		return 0, false
	}
	y0, err0 := strconv.ParseFloat(string(m[2]), 64)
	y1, err1 := strconv.ParseFloat(string(m[4]), 64)
	if err0 != nil || err1 != nil {
		return 0, false
	}
	height := y1 - y0
	if height <= 0 {
		return 0, false
	}
	return height, true
}

// pageHeightPts resolves the page's height in PDF points: its own
// /MediaBox, or (since MediaBox is commonly inherited from the parent
// /Pages node rather than repeated on every page) the first /MediaBox
// found anywhere in the document, or US Letter as a last resort.
func pageHeightPts(body []byte, objects map[int][]byte) float64 {
	if h, ok := mediaBoxHeight(body); ok {
		return h
	}
	for _, num := range sortedKeys(objects) {
		if h, ok := mediaBoxHeight(objects[num]); ok {
			return h
		}
	}
	return defaultPageHeightPts
}

// indexObjects maps every "N 0 obj ... endobj" body found in raw by its
// object number.
func indexObjects(raw []byte) map[int][]byte {
	out := make(map[int][]byte)
	for _, m := range objPattern.FindAllSubmatch(raw, -1) {
		num, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		out[num] = m[2]
	}
	return out
}

func sortedKeys(m map[int][]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// parseRefList extracts the object numbers from a /Contents match, which
// is either a single "N 0 R" or an array "[N 0 R M 0 R ...]".
func parseRefList(match [][]byte) []int {
	if len(match) < 2 {
		return nil
	}
	var nums []int
	for _, m := range refNumPattern.FindAllSubmatch(match[1], -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}

// parseXObjectDict resolves a page's /Resources (inline or by reference)
// and returns its /XObject name→object-number map.
func parseXObjectDict(pageBody []byte, objects map[int][]byte) map[string]int {
	resMatch := resourcesPattern.FindSubmatch(pageBody)
	if resMatch == nil {
		return nil
	}

	resBody := resMatch[1]
	if refMatch := refNumPattern.FindSubmatch(resBody); refMatch != nil && !bytes.Contains(resBody, []byte("<<")) {
		num, err := strconv.Atoi(string(refMatch[1]))
		if err != nil {
			return nil
		}
		resBody = objects[num]
	}

	xobjMatch := xobjectPattern.FindSubmatch(resBody)
	if xobjMatch == nil {
		return nil
	}

	names := make(map[string]int)
	for _, entry := range xobjectEntryPat.FindAllSubmatch(xobjMatch[1], -1) {
		if num, err := strconv.Atoi(string(entry[2])); err == nil {
			names[string(entry[1])] = num
		}
	}
	return names
}

// locateImagePlacements decodes page's content stream(s) and walks the
// graphics-state stack to find every name token (whether or not a `Do`
// follows it) that resolves (through xobjectByName) to an object whose dict carries
// /Subtype /Image, recording the bounding box the current transformation
// matrix maps the PDF unit square onto (the standard way an Image XObject
// is placed, independent of the image's own pixel dimensions).
func locateImagePlacements(raw []byte, page pageObject, dpi int) ([]imagePlacement, error) {
	objects := indexObjects(raw)

	var content []byte
	for _, num := range page.contentObjNums {
		body := objects[num]
		content = append(content, decodeStream(body)...)
		content = append(content, '\n')
	}
	if len(content) == 0 {
		return nil, nil
	}

	scale := float64(dpi) / 72.0
	ctmStack := [][6]float64{{1, 0, 0, 1, 0, 0}}
	var placements []imagePlacement
	var operands []float64

	for _, tok := range bytes.Fields(content) {
		s := string(tok)
		switch s {
		case "q":
			top := ctmStack[len(ctmStack)-1]
			ctmStack = append(ctmStack, top)
			operands = operands[:0]
		case "Q":
			if len(ctmStack) > 1 {
				ctmStack = ctmStack[:len(ctmStack)-1]
			}
			operands = operands[:0]
		case "cm":
			if len(operands) >= 6 {
				m := [6]float64{operands[0], operands[1], operands[2], operands[3], operands[4], operands[5]}
				top := ctmStack[len(ctmStack)-1]
				ctmStack[len(ctmStack)-1] = multiplyCTM(m, top)
			}
			operands = operands[:0]
		case "Do":
			operands = operands[:0]
		default:
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				operands = append(operands, f)
				continue
			}
			if name, ok := trimNameOperand(s); ok {
				if num, found := page.xobjectByName[name]; found && subtypeImagePat.Match(objects[num]) {
					bbox := unitSquareBBox(ctmStack[len(ctmStack)-1], scale, page.heightPts)
					placement := imagePlacement{BBox: bbox}
					if data, mimeType, ok := extractSourceImage(objects[num]); ok {
						placement.SourceBytes = data
						placement.SourceMimeType = mimeType
					}
					placements = append(placements, placement)
				}
			}
			operands = operands[:0]
		}
	}
	return placements, nil
}

// trimNameOperand recognises a PDF name token, e.g. "/Im1", and strips its
// leading slash; it does not look at the following Do. The content-stream field tokenizer
// above doesn't pair tokens, so any bare name is treated as a candidate
// XObject reference; non-resource names simply miss the map lookup above.
func trimNameOperand(tok string) (string, bool) {
	if len(tok) > 1 && tok[0] == '/' {
		return tok[1:], true
	}
	return "", false
}

func multiplyCTM(m, top [6]float64) [6]float64 {
	return [6]float64{
		m[0]*top[0] + m[1]*top[2],
		m[0]*top[1] + m[1]*top[3],
		m[2]*top[0] + m[3]*top[2],
		m[2]*top[1] + m[3]*top[3],
		m[4]*top[0] + m[5]*top[2] + top[4],
		m[4]*top[1] + m[5]*top[3] + top[5],
	}
}

// unitSquareBBox maps the PDF unit square [0,1]x[0,1] through ctm (in PDF
// points) and scale (points-to-pixels). PDF user space has its origin at
// the bottom-left with Y growing upward; raster pixel rows grow downward
// from the top, so each Y is first reflected against the page's own
// height (pageHeightPts) before scaling, not just negated.
func unitSquareBBox(ctm [6]float64, scale, pageHeightPts float64) image.Rectangle {
	corners := [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	minX, minY := 1e18, 1e18
	maxX, maxY := -1e18, -1e18
	for _, c := range corners {
		x := c[0]*ctm[0] + c[1]*ctm[2] + ctm[4]
		y := c[0]*ctm[1] + c[1]*ctm[3] + ctm[5]
		minX, maxX = minFloat(minX, x), maxFloat(maxX, x)
		minY, maxY = minFloat(minY, y), maxFloat(maxY, y)
	}
	return image.Rect(
		int(minX*scale), int((pageHeightPts-maxY)*scale),
		int(maxX*scale), int((pageHeightPts-minY)*scale),
	)
}

// extractSourceImage inspects an image XObject's own dict for a filter
// whose stream bytes are already a complete, displayable image file
// (DCTDecode: JPEG; JPXDecode: JPEG 2000), returning them verbatim so the
// figure preserves its original mime type instead of being re-encoded as
// PNG from a raster crop. Other filters (FlateDecode raw bitmaps, CCITT
// fax, indexed color) report ok=false; callers fall back to cropping the
// rendered page.
func extractSourceImage(body []byte) (data []byte, mimeType string, ok bool) {
	switch {
	case dctFilterPat.Match(body):
		return decodeStream(body), "image/jpeg", true
	case jpxFilterPat.Match(body):
		return decodeStream(body), "image/jp2", true
	default:
		return nil, "", false
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// decodeStream extracts the bytes between `stream` and `endstream` in an
// object body, inflating them if the dict preceding `stream` names
// /FlateDecode. Other filters (rare for page content streams) are
// returned as-is and will simply fail to tokenize into useful operators.
func decodeStream(body []byte) []byte {
	m := streamPattern.FindSubmatch(body)
	if m == nil {
		return nil
	}
	raw := m[1]
	if !flateFilterPat.Match(body) {
		return raw
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return raw
	}
	return out
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
