package mcp_test

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/api/mcp"
	"github.com/papercomputeco/kataru/pkg/host"
	kataruLogger "github.com/papercomputeco/kataru/pkg/logger"
	"github.com/papercomputeco/kataru/pkg/story"
)

const doc = `
start: Start
namespaces:
  global:
    passages:
      Start:
        - Alice: Hello
        - end
`

var _ = Describe("MCP Server", func() {
	var h *host.Host

	BeforeEach(func() {
		st, err := story.Parse([]byte(doc))
		Expect(err).NotTo(HaveOccurred())
		h = host.New(st)
	})

	Describe("NewServer", func() {
		It("returns an error when the host is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: kataruLogger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("session host is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Host: h})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a noop server without a host", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{Host: h, Logger: kataruLogger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("over an in-memory transport", func() {
		var (
			ctx     context.Context
			session *sdk.ClientSession
		)

		BeforeEach(func() {
			ctx = context.Background()
			server, err := mcp.NewServer(mcp.Config{Host: h, Logger: kataruLogger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			clientTransport, serverTransport := sdk.NewInMemoryTransports()
			_, err = server.MCPServer().Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())

			client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.0"}, nil)
			session, err = client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(session.Close)
		})

		It("lists the session tools", func() {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(res.Tools))
			for _, tool := range res.Tools {
				names = append(names, tool.Name)
			}
			Expect(names).To(ConsistOf(
				"open_session", "advance", "goto",
				"get_variable", "set_variable",
				"save_snapshot", "restore_snapshot", "close_session",
			))
		})

		It("opens a session through a tool call", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "open_session", Arguments: map[string]any{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(res.Content).To(HaveLen(1))

			text, ok := res.Content[0].(*sdk.TextContent)
			Expect(ok).To(BeTrue())
			Expect(text.Text).To(ContainSubstring(`"passage":"Start"`))
			Expect(h.Sessions()).To(HaveLen(1))
		})
	})
})
