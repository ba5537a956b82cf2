package tagging

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Geometry", func() {
	It("should derive set count and block size", func() {
		g := Geometry{NumSetIndexBits: 4, Associativity: 2, NumBlockOffsetBits: 5}

		Expect(g.NumSets()).To(Equal(uint64(16)))
		Expect(g.BlockSize()).To(Equal(uint64(32)))
		Expect(g.SetMask()).To(Equal(uint64(0xf)))
		Expect(g.TotalSize()).To(Equal(uint64(1024)))
	})

	It("should decode middle bits as the set and upper bits as the tag", func() {
		g := Geometry{NumSetIndexBits: 4, Associativity: 1, NumBlockOffsetBits: 4}

		tag, setIndex := g.Decode(0x12345)

		Expect(setIndex).To(Equal(uint64(0x4)))
		Expect(tag).To(Equal(uint64(0x123)))
	})

	It("should map every address to set 0 without set index bits", func() {
		g := Geometry{NumSetIndexBits: 0, Associativity: 4, NumBlockOffsetBits: 3}

		tag, setIndex := g.Decode(0xffff_ffff_ffff_ffff)

		Expect(setIndex).To(Equal(uint64(0)))
		Expect(tag).To(Equal(uint64(0x1fff_ffff_ffff_ffff)))
	})

	It("should have a zero tag when the whole address is consumed", func() {
		g := Geometry{NumSetIndexBits: 60, Associativity: 1, NumBlockOffsetBits: 4}

		tag, setIndex := g.Decode(0xabcd_0000_0000_1234)

		Expect(tag).To(Equal(uint64(0)))
		Expect(setIndex).To(Equal(uint64(0x0abcd_0000_0000_123)))
	})

	It("should use every bit as the set with 64 set index bits", func() {
		g := Geometry{NumSetIndexBits: 64, Associativity: 1}

		tag, setIndex := g.Decode(0xdead_beef)

		Expect(g.Validate()).To(Succeed())
		Expect(tag).To(Equal(uint64(0)))
		Expect(setIndex).To(Equal(uint64(0xdead_beef)))
	})

	It("should reject zero associativity", func() {
		err := Geometry{NumSetIndexBits: 1}.Validate()

		var confErr *ConfigurationError
		Expect(errors.As(err, &confErr)).To(BeTrue())
		Expect(confErr.Field).To(Equal("associativity"))
	})

	It("should cap the associativity", func() {
		Expect(Geometry{Associativity: MaxAssociativity}.Validate()).To(Succeed())

		err := Geometry{Associativity: MaxAssociativity + 1}.Validate()

		var confErr *ConfigurationError
		Expect(errors.As(err, &confErr)).To(BeTrue())
		Expect(confErr.Field).To(Equal("associativity"))
		Expect(confErr.Reason).To(ContainSubstring("at most"))
	})

	It("should reject geometries wider than an address", func() {
		err := Geometry{
			NumSetIndexBits:    40,
			Associativity:      1,
			NumBlockOffsetBits: 25,
		}.Validate()

		Expect(err).To(MatchError(ContainSubstring("exceeds the 64-bit")))
	})

	It("should saturate the total size", func() {
		g := Geometry{NumSetIndexBits: 60, Associativity: 64, NumBlockOffsetBits: 2}

		Expect(g.TotalSize()).To(Equal(^uint64(0)))
	})
})
