package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// apiResult is the API tester's report of one exchange.
type apiResult struct {
	Status     string          `json:"status" yaml:"status"`
	StatusCode int             `json:"statusCode" yaml:"status_code"`
	DurationMS int64           `json:"durationMs" yaml:"duration_ms"`
	Body       json.RawMessage `json:"body,omitempty" yaml:"-"`
	Text       string          `json:"text,omitempty" yaml:"body,omitempty"`
}

func newAPICmd(e *env) *cobra.Command {
	var headers bool
	cmd := &cobra.Command{
		Use:   "api <METHOD> <path> [json-body]",
		Short: "Send a raw request to the backend and print the reply",
		Long: `Send an arbitrary request to the backend, with the stored session token
attached when there is one. The body must be valid JSON; it is checked
before anything is sent. The reply is printed whatever its status.`,
		Example: `  cove api GET /games
  cove api POST /games/1/reviews '{"rating":5,"content":"Great"}'`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}
			body := ""
			if len(args) == 3 {
				body = args[2]
			}

			resp, err := e.client.Do(cmd.Context(), method, args[1], body)
			if err != nil {
				return err
			}

			res := apiResult{
				Status:     resp.Status,
				StatusCode: resp.StatusCode,
				DurationMS: resp.Duration.Milliseconds(),
			}
			if json.Valid(resp.Body) {
				res.Body = resp.Body
			}
			res.Text = string(resp.Body)

			if e.opts.output != formatTable {
				if res.Body != nil && e.opts.output == formatJSON {
					res.Text = ""
				}
				return e.render(res, nil)
			}

			fmt.Fprintf(e.out, "%s  %s\n", resp.Status, resp.Duration.Round(time.Millisecond))
			if headers {
				for k, v := range resp.Header {
					fmt.Fprintf(e.out, "%s: %s\n", k, strings.Join(v, ", "))
				}
			}
			fmt.Fprintln(e.out)
			var pretty bytes.Buffer
			if json.Indent(&pretty, resp.Body, "", "  ") == nil {
				fmt.Fprintln(e.out, pretty.String())
			} else {
				fmt.Fprintln(e.out, string(resp.Body))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&headers, "include", "i", false, "print response headers")
	return cmd
}
