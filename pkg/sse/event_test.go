package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseFrame", func() {
	Context("with data-only frames", func() {
		It("parses a single data line", func() {
			ev, ok := ParseFrame("data: hello")
			Expect(ok).To(BeTrue())
			Expect(ev.Data).To(Equal("hello"))
			Expect(ev.Type).To(BeEmpty())
		})

		It("joins multiple data lines with a newline", func() {
			ev, ok := ParseFrame("data: line one\ndata: line two")
			Expect(ok).To(BeTrue())
			Expect(ev.Data).To(Equal("line one\nline two"))
		})

		It("strips exactly one leading space after the colon", func() {
			ev, _ := ParseFrame("data:  two spaces")
			Expect(ev.Data).To(Equal(" two spaces"))

			ev, _ = ParseFrame("data:none")
			Expect(ev.Data).To(Equal("none"))
		})
	})

	Context("with named events", func() {
		It("parses event type and data together", func() {
			ev, ok := ParseFrame("event: content_block_delta\ndata: {\"type\":\"text_delta\"}")
			Expect(ok).To(BeTrue())
			Expect(ev.Type).To(Equal("content_block_delta"))
			Expect(ev.Data).To(Equal(`{"type":"text_delta"}`))
		})

		It("parses the id field", func() {
			ev, ok := ParseFrame("id: 42\ndata: x")
			Expect(ok).To(BeTrue())
			Expect(ev.ID).To(Equal("42"))
		})
	})

	Context("with CRLF line endings", func() {
		It("parses identically to LF", func() {
			ev, ok := ParseFrame("event: ping\r\ndata: {}\r")
			Expect(ok).To(BeTrue())
			Expect(ev.Type).To(Equal("ping"))
			Expect(ev.Data).To(Equal("{}"))
		})
	})

	Context("with unrecognized content", func() {
		It("skips comment lines", func() {
			ev, ok := ParseFrame(": keep-alive\ndata: real")
			Expect(ok).To(BeTrue())
			Expect(ev.Data).To(Equal("real"))
		})

		It("reports false for comment-only frames", func() {
			_, ok := ParseFrame(": heartbeat")
			Expect(ok).To(BeFalse())
		})

		It("reports false for empty frames", func() {
			_, ok := ParseFrame("")
			Expect(ok).To(BeFalse())
		})

		It("ignores unknown fields", func() {
			ev, ok := ParseFrame("retry: 3000\ndata: x")
			Expect(ok).To(BeTrue())
			Expect(ev.Data).To(Equal("x"))
		})
	})
})
