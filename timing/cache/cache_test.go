package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 2 sets, 2 ways, 32B lines: four words per line
		c = cache.New(cache.Config{
			Size:          128,
			Associativity: 2,
			BlockSize:     32,
		})
	})

	It("should derive the number of sets", func() {
		Expect(c.Config().NumSets()).To(Equal(2))
		Expect(cache.DefaultConfig().NumSets()).To(Equal(16))
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0)

			Expect(result.Hit).To(BeFalse())
			Expect(c.Stats().Reads).To(Equal(uint64(1)))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("should hit on a repeated read", func() {
			c.Read(0)
			result := c.Read(0)

			Expect(result.Hit).To(BeTrue())
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should hit on other words of the same line", func() {
			c.Read(0)

			Expect(c.Read(3).Hit).To(BeTrue())
			Expect(c.Read(4).Hit).To(BeFalse())
		})
	})

	Describe("Write operations", func() {
		It("should allocate on a write miss", func() {
			Expect(c.Write(8).Hit).To(BeFalse())
			Expect(c.Read(8).Hit).To(BeTrue())

			stats := c.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5))
		})
	})

	Describe("Replacement", func() {
		It("should evict the least recently used line of a full set", func() {
			// Word addresses 0, 8 and 16 map to set 0 (lines of 4 words, 2 sets).
			c.Read(0)
			c.Read(8)
			c.Read(0)

			result := c.Read(16)

			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(8 * cache.WordSize)))
			Expect(c.Read(0).Hit).To(BeTrue())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})
	})

	It("should miss again after Invalidate", func() {
		c.Read(0)
		c.Invalidate(1)

		Expect(c.Read(0).Hit).To(BeFalse())
	})

	It("should clear lines and statistics on Reset", func() {
		c.Read(0)
		c.Reset()

		Expect(c.Stats()).To(Equal(cache.Statistics{}))
		Expect(c.Read(0).Hit).To(BeFalse())
	})

	It("should report zero hit rate before any access", func() {
		Expect(c.Stats().HitRate()).To(BeZero())
	})

	It("should keep lines but clear counters on ResetStats", func() {
		c.Read(0)
		c.ResetStats()

		Expect(c.Stats()).To(Equal(cache.Statistics{}))
		Expect(c.Read(0).Hit).To(BeTrue())
	})
})
