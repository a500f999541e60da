package benchmark

import (
	"strings"
	"testing"

	"github.com/fernwehlabs/discovery/internal/search/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "Street food in Bangkok is cheap and excellent",
	"medium": `We took the overnight train from Bangkok to Chiang Mai and spent
        the first morning temple hopping in the old town. Lunch was khao soi at
        a family-run place near the north gate, then a songthaew up Doi Suthep
        for sunset over the city.`,
	"markup": `<p>The <strong>night market</strong> opens at six.</p>
        <ul><li>Try the <em>mango sticky rice</em></li><li>Bring small bills</li></ul>
        <p>Most stalls close around <a href="/guides/bangkok">midnight</a>.</p>`,
}

// BenchmarkTokenize measures tokenisation throughput for plain and
// markup-laden inputs.
func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokenizer.Tokenize(text)
			}
		})
	}
}

// BenchmarkTokenizeLong measures throughput on a long-form post body.
func BenchmarkTokenizeLong(b *testing.B) {
	long := strings.Repeat(sampleTexts["medium"]+" ", 50)
	b.ReportAllocs()
	b.SetBytes(int64(len(long)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokenizer.Tokenize(long)
	}
}
