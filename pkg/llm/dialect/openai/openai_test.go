package openai_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect"
	"github.com/papercomputeco/spool/pkg/llm/dialect/openai"
	"github.com/papercomputeco/spool/pkg/sse"
)

func normalize(data string) ([]llm.RawEvent, error) {
	return openai.New().Normalize(sse.Event{Data: data})
}

var _ = Describe("OpenAI Dialect", func() {
	var d dialect.Dialect

	BeforeEach(func() {
		d = openai.New()
	})

	Describe("Name", func() {
		It("returns 'openai'", func() {
			Expect(d.Name()).To(Equal("openai"))
		})
	})

	Describe("CanHandle", func() {
		It("returns true for chunk objects", func() {
			payload := []byte(`{"object":"chat.completion.chunk","choices":[]}`)
			Expect(d.CanHandle(payload)).To(BeTrue())
		})

		It("returns true for full chat.completion objects", func() {
			payload := []byte(`{"object":"chat.completion","choices":[{"index":0}]}`)
			Expect(d.CanHandle(payload)).To(BeTrue())
		})

		It("returns true for gpt models", func() {
			payload := []byte(`{"model":"gpt-4o"}`)
			Expect(d.CanHandle(payload)).To(BeTrue())
		})

		It("returns false for Anthropic payloads", func() {
			payload := []byte(`{"type":"message_start","message":{"model":"claude-sonnet-4"}}`)
			Expect(d.CanHandle(payload)).To(BeFalse())
		})

		It("returns false for invalid JSON", func() {
			Expect(d.CanHandle([]byte(`not json`))).To(BeFalse())
		})
	})

	Describe("Normalize", func() {
		Context("role announcement", func() {
			It("emits a block start carrying the role and model", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant"}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindBlockStart))
				Expect(*events[0].Index).To(Equal(0))
				Expect(events[0].Role).To(Equal(llm.RoleAssistant))
				Expect(events[0].Model).To(Equal("gpt-4o"))
			})
		})

		Context("text fragments", func() {
			It("emits a text delta per choice", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindTextDelta))
				Expect(events[0].Text).To(Equal("Hel"))
			})

			It("keeps parallel choices on their own indexes", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[` +
					`{"index":0,"delta":{"content":"a"}},` +
					`{"index":1,"delta":{"content":"b"}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(*events[0].Index).To(Equal(0))
				Expect(events[0].Text).To(Equal("a"))
				Expect(*events[1].Index).To(Equal(1))
				Expect(events[1].Text).To(Equal("b"))
			})

			It("flattens multimodal content parts", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":[{"type":"text","text":"hi"}]}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Text).To(Equal("hi"))
			})
		})

		Context("function calls", func() {
			It("splits a named tool call into start and args events", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"name":"get_weather","arguments":"{\"ci"}}]}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(events[0].Kind).To(Equal(llm.KindFunctionCallStart))
				Expect(events[0].Name).To(Equal("get_weather"))
				Expect(events[1].Kind).To(Equal(llm.KindFunctionCallArgsDelta))
				Expect(events[1].Args).To(Equal(`{"ci`))
			})

			It("emits only args for nameless continuation fragments", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ty\":\"SF\"}"}}]}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindFunctionCallArgsDelta))
				Expect(events[0].Args).To(Equal(`ty":"SF"}`))
			})

			It("handles the legacy function_call form", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"function_call":{"name":"lookup","arguments":"{}"}}}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(events[0].Name).To(Equal("lookup"))
				Expect(events[1].Args).To(Equal("{}"))
			})
		})

		Context("finish and close", func() {
			It("emits an index-scoped done for finish_reason", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindStreamDone))
				Expect(*events[0].Index).To(Equal(0))
				Expect(events[0].StopReason).To(Equal("stop"))
			})

			It("emits a message-scoped done for the [DONE] sentinel", func() {
				events, err := normalize("[DONE]")
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindStreamDone))
				Expect(events[0].Index).To(BeNil())
			})

			It("maps a usage-only tail chunk to a message-scoped done", func() {
				events, err := normalize(`{"object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindStreamDone))
				Expect(events[0].Index).To(BeNil())
				Expect(events[0].Usage.PromptTokens).To(Equal(12))
				Expect(events[0].Usage.CompletionTokens).To(Equal(7))
			})
		})

		Context("errors and malformed payloads", func() {
			It("maps in-band error payloads to an error event", func() {
				events, err := normalize(`{"error":{"message":"Rate limit exceeded","type":"rate_limit_error"}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindError))
				Expect(events[0].Err).To(Equal("Rate limit exceeded"))
				Expect(events[0].ErrType).To(Equal("rate_limit_error"))
			})

			It("returns a decode error for invalid JSON", func() {
				_, err := normalize(`{"object":`)
				var decodeErr *llm.DecodeError
				Expect(errors.As(err, &decodeErr)).To(BeTrue())
			})

			It("treats an empty frame as ignorable", func() {
				events, err := normalize("")
				Expect(err).NotTo(HaveOccurred())
				Expect(events[0].Kind).To(Equal(llm.KindIgnorable))
			})
		})

		Context("full response embedded in a frame", func() {
			It("emits a full message per choice", func() {
				events, err := normalize(`{"object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Kind).To(Equal(llm.KindFullMessage))
				Expect(events[0].Full.Role).To(Equal(llm.RoleAssistant))
				Expect(events[0].Full.Content).To(Equal("Hi there"))
				Expect(events[0].Full.StopReason).To(Equal("stop"))
				Expect(events[0].Full.Usage.TotalTokens).To(Equal(7))
			})
		})
	})

	Describe("NormalizeResponse", func() {
		It("maps parallel choices in order", func() {
			body := []byte(`{"object":"chat.completion","choices":[` +
				`{"index":0,"message":{"role":"assistant","content":"first"},"finish_reason":"stop"},` +
				`{"index":1,"message":{"role":"assistant","content":"second"},"finish_reason":"length"}]}`)

			events, err := d.NormalizeResponse(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Full.Content).To(Equal("first"))
			Expect(events[1].Full.Content).To(Equal("second"))
			Expect(events[1].Full.StopReason).To(Equal("length"))
		})

		It("carries tool calls into the full payload", func() {
			body := []byte(`{"object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","tool_calls":[{"function":{"name":"get_weather","arguments":"{\"city\":\"SF\"}"}}]},"finish_reason":"tool_calls"}]}`)

			events, err := d.NormalizeResponse(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(events[0].Full.FunctionName).To(Equal("get_weather"))
			Expect(events[0].Full.Arguments).To(Equal(`{"city":"SF"}`))
		})

		It("rejects bodies without choices", func() {
			_, err := d.NormalizeResponse([]byte(`{"object":"chat.completion","choices":[]}`))
			var shapeErr *llm.UnexpectedShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})
	})
})
