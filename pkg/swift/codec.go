package swift

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/guarantee-messaging/pkg/money"
)

const (
	// ContentDateLayout is the date format used in message content.
	ContentDateLayout = "2006-01-02"
	// WireDateLayout is the SWIFT YYMMDD date format.
	WireDateLayout = "060102"

	basicHeaderPrefix = "F01"
	sessionSequence   = "0000000000"
	checksumLength    = 12

	// MinWireYear and MaxWireYear bound the dates YYMMDD can carry without
	// changing century on decode.
	MinWireYear = 2000
	MaxWireYear = 2068
)

// ErrUnencodable matches values that would not survive a trip through the
// text block unchanged.
var ErrUnencodable = errors.New("value cannot be encoded")

// CheckText reports whether v can be written to the text block and read back
// unchanged. Block delimiters, continuation lines shaped like a tag, the
// end-of-text line and a trailing line break are rejected.
func CheckText(v string) error {
	if strings.ContainsAny(v, "{}") {
		return fmt.Errorf("%w: contains a block delimiter", ErrUnencodable)
	}
	v = strings.ReplaceAll(v, "\r\n", "\n")
	if strings.HasSuffix(v, "\n") {
		return fmt.Errorf("%w: ends with a line break", ErrUnencodable)
	}
	lines := strings.Split(v, "\n")
	for _, line := range lines[1:] {
		if line == "-" {
			return fmt.Errorf("%w: line %q ends the text block", ErrUnencodable, line)
		}
		if _, ok := tagOf(line); ok {
			return fmt.Errorf("%w: line %q starts a new tag", ErrUnencodable, line)
		}
	}
	return nil
}

// CheckWireDate reports whether d fits the YYMMDD window.
func CheckWireDate(d time.Time) error {
	if y := d.Year(); y < MinWireYear || y > MaxWireYear {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrUnencodable, y, MinWireYear, MaxWireYear)
	}
	return nil
}

// Decoded is the result of parsing a wire message.
type Decoded struct {
	Type       MessageType
	SenderID   string
	ReceiverID string
	Content    Content
	// Tags holds every colon-tagged value of the text block, mapped or not.
	Tags map[string]string
	// Checksum is the CHK token from the trailer block. It is not verified.
	Checksum string
}

// Encode renders content as a FIN message. Fields are emitted in the type's
// canonical order and only when present.
func Encode(content Content, msgType MessageType, senderID, receiverID string) (string, error) {
	if !msgType.IsSupported() {
		return "", &UnsupportedTypeError{Type: string(msgType)}
	}

	var text strings.Builder
	for _, spec := range layouts[msgType] {
		value, ok, err := encodeValue(spec, content)
		if err != nil {
			return "", fmt.Errorf("encode %s field :%s: %w", msgType, spec.Tag, err)
		}
		if !ok {
			continue
		}
		text.WriteString("\n:")
		text.WriteString(spec.Tag)
		text.WriteByte(':')
		text.WriteString(value)
	}
	text.WriteString("\n-")

	body := text.String()

	var b strings.Builder
	b.WriteString("{1:")
	b.WriteString(basicHeaderPrefix)
	b.WriteString(senderID)
	b.WriteString(sessionSequence)
	b.WriteString("}{2:I")
	b.WriteString(msgType.Code())
	b.WriteString(receiverID)
	b.WriteString("N}{4:")
	b.WriteString(body)
	b.WriteString("}{5:{CHK:")
	b.WriteString(Checksum(body))
	b.WriteString("}}")
	return b.String(), nil
}

func encodeValue(spec TagSpec, content Content) (string, bool, error) {
	switch spec.Kind {
	case KindAmount:
		amount, hasAmount := content.Get(spec.Field)
		currency, hasCurrency := content.Get(spec.CurrencyField)
		if !hasAmount && !hasCurrency {
			return "", false, nil
		}
		var out strings.Builder
		out.WriteString(strings.TrimSpace(currency))
		if hasAmount && strings.TrimSpace(amount) != "" {
			a, err := money.ToSWIFTAmount(amount)
			if err != nil {
				return "", false, err
			}
			out.WriteString(a)
		}
		return out.String(), true, nil
	case KindDate:
		v, ok := content.Get(spec.Field)
		if !ok {
			return "", false, nil
		}
		d, err := time.Parse(ContentDateLayout, strings.TrimSpace(v))
		if err != nil {
			return "", false, fmt.Errorf("invalid date %q: %w", v, err)
		}
		if err := CheckWireDate(d); err != nil {
			return "", false, err
		}
		return d.Format(WireDateLayout), true, nil
	default:
		v, ok := content.Get(spec.Field)
		if !ok {
			return "", false, nil
		}
		if err := CheckText(v); err != nil {
			return "", false, err
		}
		return strings.ReplaceAll(v, "\r\n", "\n"), true, nil
	}
}

// Checksum derives the trailer token from the text block. It exists for
// format completeness only and carries no integrity guarantee.
func Checksum(textBlock string) string {
	sum := sha256.Sum256([]byte(textBlock))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:checksumLength]
}

// Decode parses a FIN message back into its type, parties and content.
func Decode(raw string) (Decoded, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "{1:") && !strings.Contains(raw, "{4:") {
		return Decoded{}, &MalformedMessageError{Reason: "missing basic header and text block"}
	}

	blocks, err := splitBlocks(raw)
	if err != nil {
		return Decoded{}, err
	}

	appHeader, ok := blocks["2"]
	if !ok {
		return Decoded{}, &MalformedMessageError{Reason: "missing application header block {2:}"}
	}
	msgType, receiverID, err := parseApplicationHeader(appHeader)
	if err != nil {
		return Decoded{}, err
	}

	tags := parseTextBlock(blocks["4"])

	return Decoded{
		Type:       msgType,
		SenderID:   parseBasicHeader(blocks["1"]),
		ReceiverID: receiverID,
		Content:    mapTags(msgType, tags),
		Tags:       tags,
		Checksum:   parseTrailer(blocks["5"]),
	}, nil
}

// splitBlocks returns the top-level {id:body} blocks keyed by id.
func splitBlocks(raw string) (map[string]string, error) {
	blocks := make(map[string]string)
	depth := 0
	start := -1
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, &MalformedMessageError{Reason: fmt.Sprintf("unbalanced block delimiter at offset %d", i)}
			}
			if depth == 0 {
				block := raw[start+1 : i]
				sep := strings.IndexByte(block, ':')
				if sep <= 0 {
					return nil, &MalformedMessageError{Reason: fmt.Sprintf("block at offset %d has no identifier", start)}
				}
				blocks[block[:sep]] = block[sep+1:]
			}
		}
	}
	if depth != 0 {
		return nil, &MalformedMessageError{Reason: "unbalanced block delimiters: unterminated block"}
	}
	return blocks, nil
}

func parseBasicHeader(block string) string {
	s := strings.TrimPrefix(block, basicHeaderPrefix)
	if len(s) > len(sessionSequence) && isDigits(s[len(s)-len(sessionSequence):]) {
		s = s[:len(s)-len(sessionSequence)]
	}
	return s
}

func parseApplicationHeader(block string) (MessageType, string, error) {
	if len(block) < 4 {
		return "", "", &MalformedMessageError{Reason: fmt.Sprintf("application header too short: %q", block)}
	}
	direction := block[0]
	code := block[1:4]
	if !isDigits(code) {
		return "", "", &MalformedMessageError{Reason: fmt.Sprintf("application header has no numeric type code: %q", block)}
	}
	msgType, err := MessageTypeFromCode(code)
	if err != nil {
		return "", "", err
	}

	receiver := ""
	if direction == 'I' {
		receiver = block[4:]
		if n := len(receiver); n > 0 && strings.ContainsRune("NUS", rune(receiver[n-1])) {
			receiver = receiver[:n-1]
		}
	}
	return msgType, receiver, nil
}

// parseTextBlock extracts every :TAG:value line. Lines that do not start a
// new tag continue the previous value.
func parseTextBlock(block string) map[string]string {
	tags := make(map[string]string)
	block = strings.TrimRight(block, "\r\n")
	if block == "-" {
		return tags
	}
	block = strings.TrimRight(strings.TrimSuffix(block, "\n-"), "\r\n")

	var current string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")

		if tag, ok := tagOf(line); ok {
			current = tag
			tags[current] = line[len(tag)+2:]
			continue
		}

		if current != "" {
			tags[current] += "\n" + line
		}
	}
	return tags
}

func parseTrailer(block string) string {
	const marker = "{CHK:"
	idx := strings.Index(block, marker)
	if idx < 0 {
		return ""
	}
	rest := block[idx+len(marker):]
	if end := strings.IndexByte(rest, '}'); end >= 0 {
		return rest[:end]
	}
	return rest
}

// mapTags applies the inverse of the encoder's layout.
func mapTags(msgType MessageType, tags map[string]string) Content {
	var content Content
	for _, spec := range layouts[msgType] {
		value, ok := tags[spec.Tag]
		if !ok {
			continue
		}
		switch spec.Kind {
		case KindAmount:
			currency, amount := splitAmountField(value)
			if amount != "" {
				content.Set(spec.Field, amount)
			}
			if currency != "" {
				content.Set(spec.CurrencyField, currency)
			}
		case KindDate:
			if d, err := time.Parse(WireDateLayout, strings.TrimSpace(value)); err == nil {
				content.Set(spec.Field, d.Format(ContentDateLayout))
			} else {
				content.Set(spec.Field, value)
			}
		default:
			content.Set(spec.Field, value)
		}
	}
	return content
}

// splitAmountField separates a 32B value "USD100000,50" into currency and
// plain-notation amount.
func splitAmountField(value string) (string, string) {
	value = strings.TrimSpace(value)
	currency := ""
	if len(value) >= 3 && isLetters(value[:3]) {
		currency, value = value[:3], value[3:]
	}
	if value == "" {
		return currency, ""
	}
	if plain, err := money.FromSWIFTAmount(value); err == nil {
		return currency, plain
	}
	return currency, value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isTagName accepts two digits with an optional trailing letter option.
// tagOf returns the tag name when line opens a :TAG: field.
func tagOf(line string) (string, bool) {
	if !strings.HasPrefix(line, ":") || len(line) <= 3 {
		return "", false
	}
	endIdx := strings.Index(line[1:], ":")
	if endIdx <= 0 || !isTagName(line[1:endIdx+1]) {
		return "", false
	}
	return line[1 : endIdx+1], true
}

func isTagName(s string) bool {
	if len(s) < 2 || len(s) > 3 || !isDigits(s[:2]) {
		return false
	}
	return len(s) == 2 || isLetters(s[2:])
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
