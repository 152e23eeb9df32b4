package errcount_test

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/angeloszaimis/linkpulse/internal/errcount"
	"github.com/angeloszaimis/linkpulse/pkg/logger"
)

var _ = Describe("RedisStore", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		store  *errcount.RedisStore
		ctx    context.Context
	)

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store = errcount.NewRedisStore(client, "linkpulse:error-count")
		ctx = context.Background()
		DeferCleanup(client.Close)
	})

	It("should load an empty map from a missing key", func() {
		counts, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(BeEmpty())
	})

	It("should persist counters across a run", func() {
		mr.HSet("linkpulse:error-count", "a.example", "4", "b.example", "4")

		counter := errcount.NewCounter(errcount.LoadOrEmpty(ctx, store, logger.Discard()))
		Expect(counter.Record("a.example", true)).To(Equal(0))
		Expect(counter.Record("b.example", false)).To(Equal(5))
		Expect(counter.Record("c.example", false)).To(Equal(1))
		Expect(store.Save(ctx, counter.Snapshot())).To(Succeed())

		Expect(mr.HGet("linkpulse:error-count", "a.example")).To(Equal("0"))
		Expect(mr.HGet("linkpulse:error-count", "b.example")).To(Equal("5"))
		Expect(mr.HGet("linkpulse:error-count", "c.example")).To(Equal("1"))
	})

	It("should skip fields that are not counts", func() {
		mr.HSet("linkpulse:error-count", "a.example", "2", "b.example", "many")

		counts, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(Equal(map[string]int{"a.example": 2}))
	})

	It("should fail to load when the server is gone", func() {
		mr.Close()
		_, err := store.Load(ctx)
		Expect(err).To(HaveOccurred())
	})
})
