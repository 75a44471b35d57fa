package cache

import (
	"fmt"
	"sync"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ResultCache", func() {
	var (
		c   *ResultCache
		now time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		c = New(Options{MaxEntries: 3, TTL: time.Minute, Policy: &FIFOPolicy{}})
		c.now = func() time.Time { return now }
	})

	ginkgo.Describe("key normalization", func() {
		ginkgo.It("shares entries across trivially different inputs", func() {
			c.Set("Hello!", "en", Verdict{Label: "benign"})

			v, ok := c.Get("  hello! ", "en")
			Expect(ok).To(BeTrue())
			Expect(v.Label).To(Equal("benign"))

			v, ok = c.Get("HELLO!", "EN")
			Expect(ok).To(BeTrue())
			Expect(v.Label).To(Equal("benign"))
		})

		ginkgo.It("collapses interior whitespace", func() {
			Expect(NormalizeKey("what   time\tis it", "en")).
				To(Equal("what time is it|en"))
		})

		ginkgo.It("keeps languages separate", func() {
			c.Set("hello", "en", Verdict{Label: "benign"})
			_, ok := c.Get("hello", "es")
			Expect(ok).To(BeFalse())
		})
	})

	ginkgo.Describe("TTL expiry", func() {
		ginkgo.It("returns the verdict until expiry and a miss after", func() {
			c.Set("hello", "en", Verdict{Label: "benign", Confidence: 0.9})

			now = now.Add(59 * time.Second)
			v, ok := c.Get("hello", "en")
			Expect(ok).To(BeTrue())
			Expect(v.Confidence).To(Equal(0.9))

			now = now.Add(2 * time.Second)
			_, ok = c.Get("hello", "en")
			Expect(ok).To(BeFalse())
		})

		ginkgo.It("evicts expired entries on read", func() {
			c.Set("hello", "en", Verdict{Label: "benign"})
			now = now.Add(2 * time.Minute)

			_, _ = c.Get("hello", "en")
			Expect(c.Stats().Size).To(BeZero())
		})

		ginkgo.It("never lets access frequency extend an entry's life", func() {
			c.Set("hello", "en", Verdict{Label: "benign"})
			for i := 0; i < 30; i++ {
				now = now.Add(3 * time.Second)
				c.Get("hello", "en")
			}
			// 90 seconds of steady hits: the entry is past TTL regardless.
			_, ok := c.Get("hello", "en")
			Expect(ok).To(BeFalse())
		})
	})

	ginkgo.Describe("bounded size", func() {
		ginkgo.It("evicts the oldest insertion on overflow", func() {
			c.Set("one", "en", Verdict{Label: "a"})
			now = now.Add(time.Second)
			c.Set("two", "en", Verdict{Label: "b"})
			now = now.Add(time.Second)
			c.Set("three", "en", Verdict{Label: "c"})
			now = now.Add(time.Second)
			c.Set("four", "en", Verdict{Label: "d"})

			Expect(c.Stats().Size).To(Equal(3))
			_, ok := c.Get("one", "en")
			Expect(ok).To(BeFalse())
			_, ok = c.Get("four", "en")
			Expect(ok).To(BeTrue())
		})

		ginkgo.It("updates an existing key in place without eviction", func() {
			c.Set("one", "en", Verdict{Label: "a"})
			c.Set("two", "en", Verdict{Label: "b"})
			c.Set("three", "en", Verdict{Label: "c"})
			c.Set("one", "en", Verdict{Label: "a2"})

			Expect(c.Stats().Size).To(Equal(3))
			v, ok := c.Get("one", "en")
			Expect(ok).To(BeTrue())
			Expect(v.Label).To(Equal("a2"))
		})
	})

	ginkgo.Describe("stats", func() {
		ginkgo.It("tracks hits, misses, and hit rate", func() {
			c.Set("hello", "en", Verdict{Label: "benign"})
			c.Get("hello", "en")
			c.Get("hello", "en")
			c.Get("missing", "en")

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(int64(2)))
			Expect(stats.Misses).To(Equal(int64(1)))
			Expect(stats.HitRate).To(BeNumerically("~", 2.0/3.0, 1e-9))
		})
	})

	ginkgo.Describe("concurrent access", func() {
		ginkgo.It("serves interleaved readers and writers without corruption", func() {
			c = New(Options{MaxEntries: 64, TTL: time.Minute})

			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						key := fmt.Sprintf("msg-%d", i%32)
						c.Set(key, "en", Verdict{Label: key})
						if v, ok := c.Get(key, "en"); ok {
							// A hit must return the exact verdict stored
							// under that key, never a partial entry.
							Expect(v.Label).To(Equal(key))
						}
					}
				}(g)
			}
			wg.Wait()
		})
	})
})
