package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AutoApprove signs every request without asking.
func AutoApprove(context.Context, signer.Account, signer.SignerPayloadRaw) bool { return true }

// PromptApprover asks on out and reads a y/N answer from in for every
// request. Prompts are serialized.
func PromptApprover(in io.Reader, out io.Writer) signer.Approver {
	var mu sync.Mutex
	reader := bufio.NewReader(in)

	return func(ctx context.Context, acc signer.Account, payload signer.SignerPayloadRaw) bool {
		mu.Lock()
		defer mu.Unlock()

		if ctx.Err() != nil {
			return false
		}
		fmt.Fprintf(out, "\nSignature request for %s (%s)\n", acc.Name, wallet.ShortAddress(acc.Address))
		fmt.Fprintf(out, "  type: %s\n", payload.Type)
		fmt.Fprintf(out, "  data: %s\n", describe(payload))
		fmt.Fprint(out, "Approve? [y/N]: ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// describe shows readable text for byte requests and a short hex otherwise.
func describe(payload signer.SignerPayloadRaw) string {
	data, err := hexutil.Decode(payload.Data)
	if err != nil {
		return payload.Data
	}
	if payload.Type != signer.PayloadTypePayload && isPrintable(data) {
		const max = 200
		s := string(data)
		if len(s) > max {
			s = s[:max] + "..."
		}
		return s
	}
	if len(payload.Data) > 66 {
		return payload.Data[:66] + "..."
	}
	return payload.Data
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
