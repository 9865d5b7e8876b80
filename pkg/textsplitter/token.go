package textsplitter

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingCache sync.Map
	defaultOnce   sync.Once
	defaultEnc    *tiktoken.Tiktoken
)

// TokenLen returns a LenFunc measuring text in model tokens. Unknown
// models fall back to the cl100k_base encoding; when no encoding can be
// loaded at all, length is estimated at four bytes per token.
func TokenLen(model string) LenFunc {
	return func(text string) int {
		if text == "" {
			return 0
		}
		enc := encodingFor(model)
		if enc == nil {
			return len(text) / 4
		}
		return len(enc.Encode(text, nil, nil))
	}
}

func encodingFor(model string) *tiktoken.Tiktoken {
	base := normalizeModelName(model)
	if cached, ok := encodingCache.Load(base); ok {
		if enc, ok := cached.(*tiktoken.Tiktoken); ok {
			return enc
		}
		return defaultEncoding()
	}

	enc, err := tiktoken.EncodingForModel(base)
	if err != nil {
		enc = defaultEncoding()
	}
	if enc != nil {
		encodingCache.Store(base, enc)
	}
	return enc
}

func defaultEncoding() *tiktoken.Tiktoken {
	defaultOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			defaultEnc = enc
		}
	})
	return defaultEnc
}

// normalizeModelName strips a provider prefix such as
// "thenlper/gte-large" down to the bare model name.
func normalizeModelName(model string) string {
	if idx := strings.LastIndex(model, "/"); idx >= 0 && idx+1 < len(model) {
		return model[idx+1:]
	}
	return model
}
