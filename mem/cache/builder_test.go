package cache

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	It("should build a simulator with the requested geometry", func() {
		s, err := MakeBuilder().
			WithNumSetIndexBits(4).
			WithWayAssociativity(2).
			WithNumBlockOffsetBits(5).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("L1"))
		Expect(s.Geometry()).To(Equal(Geometry{
			NumSetIndexBits:    4,
			Associativity:      2,
			NumBlockOffsetBits: 5,
		}))
		Expect(s.Stats()).To(BeZero())
	})

	It("should refuse zero associativity", func() {
		s, err := MakeBuilder().WithWayAssociativity(0).Build("L1")

		var confErr *ConfigurationError
		Expect(errors.As(err, &confErr)).To(BeTrue())
		Expect(s).To(BeNil())
	})

	It("should refuse geometries wider than an address", func() {
		_, err := MakeBuilder().
			WithGeometry(Geometry{
				NumSetIndexBits:    33,
				Associativity:      1,
				NumBlockOffsetBits: 32,
			}).
			Build("L1")

		Expect(err).To(HaveOccurred())
	})

	It("should refuse unknown replacement strategies", func() {
		_, err := MakeBuilder().WithReplaceStrategy("fifo").Build("L1")

		Expect(err).To(MatchError(ContainSubstring("must be lru")))
	})

	It("should not share hooks between derived builders", func() {
		base := MakeBuilder().WithHook(&recordingHook{})
		a := base.WithHook(&recordingHook{})
		b := base.WithHook(&recordingHook{})

		sa, err := a.Build("a")
		Expect(err).NotTo(HaveOccurred())
		sb, err := b.Build("b")
		Expect(err).NotTo(HaveOccurred())

		Expect(sa.NumHooks()).To(Equal(2))
		Expect(sb.NumHooks()).To(Equal(2))
		Expect(sa.Hooks()[1]).NotTo(BeIdenticalTo(sb.Hooks()[1]))
	})
})
