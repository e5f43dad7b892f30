package anthropic_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect"
	"github.com/papercomputeco/spool/pkg/llm/dialect/anthropic"
	"github.com/papercomputeco/spool/pkg/sse"
)

func normalize(eventType, data string) ([]llm.RawEvent, error) {
	return anthropic.New().Normalize(sse.Event{Type: eventType, Data: data})
}

var _ = Describe("Anthropic Dialect", func() {
	var d dialect.Dialect

	BeforeEach(func() {
		d = anthropic.New()
	})

	Describe("Name", func() {
		It("returns 'anthropic'", func() {
			Expect(d.Name()).To(Equal("anthropic"))
		})
	})

	Describe("CanHandle", func() {
		It("returns true for streaming event types", func() {
			Expect(d.CanHandle([]byte(`{"type":"message_start"}`))).To(BeTrue())
			Expect(d.CanHandle([]byte(`{"type":"content_block_delta"}`))).To(BeTrue())
			Expect(d.CanHandle([]byte(`{"type":"ping"}`))).To(BeTrue())
		})

		It("returns true for claude models", func() {
			Expect(d.CanHandle([]byte(`{"model":"claude-sonnet-4"}`))).To(BeTrue())
		})

		It("returns false for OpenAI payloads", func() {
			Expect(d.CanHandle([]byte(`{"object":"chat.completion.chunk","choices":[]}`))).To(BeFalse())
		})

		It("returns false for invalid JSON", func() {
			Expect(d.CanHandle([]byte(`not json`))).To(BeFalse())
		})
	})

	Describe("Normalize", func() {
		Context("message_start", func() {
			It("opens block zero with role, model, and input usage", func() {
				events, err := normalize("message_start",
					`{"type":"message_start","message":{"id":"msg_1","role":"assistant","model":"claude-sonnet-4","usage":{"input_tokens":25,"output_tokens":0}}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindBlockStart))
				Expect(*events[0].Index).To(Equal(0))
				Expect(events[0].Role).To(Equal(llm.RoleAssistant))
				Expect(events[0].Model).To(Equal("claude-sonnet-4"))
				Expect(events[0].Usage.PromptTokens).To(Equal(25))
			})
		})

		Context("content_block_start", func() {
			It("opens a text block with its seed text", func() {
				events, err := normalize("content_block_start",
					`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindBlockStart))
				Expect(events[0].Text).To(BeEmpty())
			})

			It("maps tool_use blocks to a function call start", func() {
				events, err := normalize("content_block_start",
					`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"get_weather"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindFunctionCallStart))
				Expect(*events[0].Index).To(Equal(1))
				Expect(events[0].Name).To(Equal("get_weather"))
			})
		})

		Context("content_block_delta", func() {
			It("maps text_delta to a text fragment", func() {
				events, err := normalize("content_block_delta",
					`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindTextDelta))
				Expect(events[0].Text).To(Equal("Hello"))
			})

			It("forwards input_json_delta fragments verbatim", func() {
				events, err := normalize("content_block_delta",
					`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\": "}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindFunctionCallArgsDelta))
				Expect(events[0].Args).To(Equal(`{"city": `))
			})

			It("ignores thinking deltas", func() {
				events, err := normalize("content_block_delta",
					`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindIgnorable))
			})
		})

		Context("lifecycle frames", func() {
			It("closes a block on content_block_stop", func() {
				events, err := normalize("content_block_stop",
					`{"type":"content_block_stop","index":0}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindBlockStop))
				Expect(*events[0].Index).To(Equal(0))
			})

			It("maps message_delta to a message-scoped done with output usage", func() {
				events, err := normalize("message_delta",
					`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":15}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindStreamDone))
				Expect(events[0].Index).To(BeNil())
				Expect(events[0].StopReason).To(Equal("end_turn"))
				Expect(events[0].Usage.CompletionTokens).To(Equal(15))
			})

			It("drops ping and message_stop", func() {
				events, err := normalize("ping", `{"type":"ping"}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindIgnorable))

				events, err = normalize("message_stop", `{"type":"message_stop"}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindIgnorable))
			})

			It("falls back to the payload type when the event name is missing", func() {
				events, err := normalize("",
					`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"x"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindTextDelta))
			})
		})

		Context("errors and malformed payloads", func() {
			It("maps error events preserving the provider message", func() {
				events, err := normalize("error",
					`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindError))
				Expect(events[0].Err).To(Equal("Overloaded"))
				Expect(events[0].ErrType).To(Equal("overloaded_error"))
			})

			It("returns a decode error for invalid JSON", func() {
				_, err := normalize("content_block_delta", `{"type":`)
				var decodeErr *llm.DecodeError
				Expect(errors.As(err, &decodeErr)).To(BeTrue())
			})

			It("rejects unrecognized event types", func() {
				_, err := normalize("mystery", `{"type":"mystery"}`)
				var shapeErr *llm.UnexpectedShapeError
				Expect(errors.As(err, &shapeErr)).To(BeTrue())
			})
		})
	})

	Describe("NormalizeResponse", func() {
		It("reduces a full response to one message on index zero", func() {
			body := []byte(`{"type":"message","role":"assistant","model":"claude-sonnet-4","stop_reason":"end_turn","content":[{"type":"text","text":"Hello "},{"type":"text","text":"world"}],"usage":{"input_tokens":10,"output_tokens":4}}`)

			events, err := d.NormalizeResponse(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(llm.KindFullMessage))
			Expect(*events[0].Index).To(Equal(0))
			Expect(events[0].Full.Content).To(Equal("Hello world"))
			Expect(events[0].Full.StopReason).To(Equal("end_turn"))
			Expect(events[0].Full.Usage.PromptTokens).To(Equal(10))
		})

		It("lifts the first tool_use block into the function fields", func() {
			body := []byte(`{"type":"message","role":"assistant","stop_reason":"tool_use","content":[{"type":"tool_use","id":"tu_1","name":"get_weather","input":{"city":"SF"}}]}`)

			events, err := d.NormalizeResponse(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(events[0].Full.FunctionName).To(Equal("get_weather"))
			Expect(events[0].Full.Arguments).To(MatchJSON(`{"city":"SF"}`))
		})

		It("rejects non-message bodies", func() {
			_, err := d.NormalizeResponse([]byte(`{"type":"completion"}`))
			var shapeErr *llm.UnexpectedShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})
	})
})
