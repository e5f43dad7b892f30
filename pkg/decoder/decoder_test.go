package decoder_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/accumulator"
	"github.com/papercomputeco/spool/pkg/decoder"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect/anthropic"
	"github.com/papercomputeco/spool/pkg/llm/dialect/openai"
)

// openAIStream is a complete Chat Completions stream for one text response.
const openAIStream = `data: {"object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant"}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hello"}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":", world"}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]

`

// anthropicStream is a complete Messages API stream with a text block and a
// tool_use block.
const anthropicStream = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","role":"assistant","model":"claude-sonnet-4","usage":{"input_tokens":25,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: ping
data: {"type":"ping"}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Checking the weather"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: content_block_start
data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"get_weather"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":" \"SF\"}"}}

event: content_block_stop
data: {"type":"content_block_stop","index":1}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":15}}

event: message_stop
data: {"type":"message_stop"}

`

var _ = Describe("Session", func() {
	Describe("OpenAI streams", func() {
		It("decodes a whole stream fed in one chunk", func() {
			sess := decoder.NewSession(openai.New())

			_, err := sess.Feed(openAIStream)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Done()).To(BeTrue())
			Expect(sess.Rest()).To(BeEmpty())

			msgs := sess.Messages()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Role).To(Equal(llm.RoleAssistant))
			Expect(msgs[0].Content).To(Equal("Hello, world"))
			Expect(msgs[0].Status).To(Equal(llm.StatusComplete))
			Expect(msgs[0].Model).To(Equal("gpt-4o"))
		})

		It("decodes identically when fed byte by byte", func() {
			sess := decoder.NewSession(openai.New())

			for i := 0; i < len(openAIStream); i++ {
				_, err := sess.Feed(openAIStream[i : i+1])
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(sess.Done()).To(BeTrue())
			Expect(sess.Messages()[0].Content).To(Equal("Hello, world"))
		})

		It("survives a chunk boundary inside a multi-byte character", func() {
			stream := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"héllo ✓\"}}]}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n"

			sess := decoder.NewSession(openai.New())
			for i := 0; i < len(stream); i++ {
				_, err := sess.Feed(stream[i : i+1])
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(sess.Messages()[0].Content).To(Equal("héllo ✓"))
		})

		It("accumulates tool call arguments split across chunks", func() {
			stream := `data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"name":"get_weather","arguments":""}}]}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\""}}]}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":": \"SF\"}"}}]}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}

`
			sess := decoder.NewSession(openai.New())
			_, err := sess.Feed(stream)
			Expect(err).NotTo(HaveOccurred())

			msgs := sess.Messages()
			Expect(msgs[0].FunctionName).To(Equal("get_weather"))
			Expect(msgs[0].Arguments).To(Equal(`{"city": "SF"}`))
			Expect(msgs[0].FunctionArgs).To(HaveKeyWithValue("city", "SF"))
		})

		It("merges usage from a usage-only tail chunk", func() {
			stream := `data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"hi"}}]}

data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: {"object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}}

data: [DONE]

`
			sess := decoder.NewSession(openai.New())
			_, err := sess.Feed(stream)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Usage().TotalTokens).To(Equal(19))
		})
	})

	Describe("Anthropic streams", func() {
		It("decodes text and tool blocks with split usage", func() {
			sess := decoder.NewSession(anthropic.New())

			_, err := sess.Feed(anthropicStream)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Done()).To(BeTrue())

			msgs := sess.Messages()
			Expect(msgs).To(HaveLen(2))

			Expect(msgs[0].Index).To(Equal(0))
			Expect(msgs[0].Role).To(Equal(llm.RoleAssistant))
			Expect(msgs[0].Content).To(Equal("Checking the weather"))
			Expect(msgs[0].Status).To(Equal(llm.StatusComplete))

			Expect(msgs[1].Index).To(Equal(1))
			Expect(msgs[1].FunctionName).To(Equal("get_weather"))
			Expect(msgs[1].Arguments).To(Equal(`{"city": "SF"}`))
			Expect(msgs[1].FunctionArgs).To(HaveKeyWithValue("city", "SF"))

			usage := sess.Usage()
			Expect(usage.PromptTokens).To(Equal(25))
			Expect(usage.CompletionTokens).To(Equal(15))
			Expect(usage.TotalTokens).To(Equal(40))
		})

		It("decodes a CRLF stream identically", func() {
			crlf := strings.ReplaceAll(anthropicStream, "\n", "\r\n")

			sess := decoder.NewSession(anthropic.New())
			_, err := sess.Feed(crlf)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Done()).To(BeTrue())
			Expect(sess.Messages()[0].Content).To(Equal("Checking the weather"))
		})

		It("surfaces an in-band error and fails the session", func() {
			stream := "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"role\":\"assistant\"}}\n\n" +
				"event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n"

			sess := decoder.NewSession(anthropic.New())
			_, err := sess.Feed(stream)

			var upstream *llm.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Message).To(Equal("Overloaded"))

			_, err = sess.Feed("anything")
			Expect(err).To(MatchError(decoder.ErrSessionFailed))
		})
	})

	Describe("incomplete streams", func() {
		It("reports a mid-frame tail through Rest", func() {
			sess := decoder.NewSession(openai.New())
			_, err := sess.Feed(`data: {"object":"chat.completion.chunk","choi`)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Rest()).NotTo(BeEmpty())
			Expect(sess.Done()).To(BeFalse())
		})

		It("cancels open blocks on abandonment", func() {
			sess := decoder.NewSession(openai.New())
			_, err := sess.Feed(`data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"partial"}}]}` + "\n\n")
			Expect(err).NotTo(HaveOccurred())

			deltas := sess.Cancel()
			Expect(deltas).To(HaveLen(1))
			Expect(deltas[0].Status).To(Equal(llm.StatusCancelled))
			Expect(sess.Done()).To(BeTrue())
			Expect(sess.Messages()[0].Content).To(Equal("partial"))
		})
	})

	Describe("sinks", func() {
		It("streams deltas through the configured sink", func() {
			var got []llm.Delta
			sess := decoder.NewSession(openai.New(),
				decoder.WithSink(accumulator.SinkFunc(func(d llm.Delta) { got = append(got, d) })))

			_, err := sess.Feed(openAIStream)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeEmpty())

			var text strings.Builder
			for _, d := range got {
				if d.Content != nil {
					text.WriteString(*d.Content)
				}
			}
			Expect(text.String()).To(Equal("Hello, world"))
		})
	})
})

var _ = Describe("DecodeResponse", func() {
	It("decodes a complete OpenAI response body", func() {
		body := []byte(`{"object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"Hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`)

		msgs, err := decoder.DecodeResponse(openai.New(), body)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Content).To(Equal("Hi"))
		Expect(msgs[0].Status).To(Equal(llm.StatusComplete))
	})

	It("decodes a complete Anthropic response body", func() {
		body := []byte(`{"type":"message","role":"assistant","model":"claude-sonnet-4","stop_reason":"max_tokens","content":[{"type":"text","text":"truncated tex"}]}`)

		msgs, err := decoder.DecodeResponse(anthropic.New(), body)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs[0].Status).To(Equal(llm.StatusTruncatedLength))
	})
})

var _ = Describe("DecodeStream", func() {
	It("drives a session from an io.Reader", func() {
		msgs, err := decoder.DecodeStream(openai.New(), strings.NewReader(openAIStream), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Content).To(Equal("Hello, world"))
	})
})
