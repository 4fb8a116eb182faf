package cmd

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/chinmay1088/claimer/claim"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestReporter(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	r := newReporter(&buf, false, false)

	hash := common.HexToHash("0xabc")
	submitted := claim.Outcome{
		Index:         1,
		Address:       "0x00000000000000000000000000000000000000aa",
		Status:        claim.StatusSubmitted,
		TxHash:        hash,
		ExplorerURL:   "https://polygonscan.com/tx/" + hash.Hex(),
		ReceiptStatus: types.ReceiptStatusSuccessful,
		BlockNumber:   big.NewInt(42),
	}
	later := claim.Outcome{
		Index:      2,
		Address:    "0x00000000000000000000000000000000000000bb",
		Status:     claim.StatusNotYetEligible,
		UnlockTime: time.Unix(1999999999, 0),
	}
	missing := claim.Outcome{
		Index:   3,
		Address: "0x00000000000000000000000000000000000000cc",
		Status:  claim.StatusMissingCredential,
		Err:     claim.ErrMissingCredential,
	}
	failed := claim.Outcome{
		Index:   4,
		Address: "0x00000000000000000000000000000000000000dd",
		Status:  claim.StatusFailed,
		Err:     errors.New("execution reverted"),
	}

	r.Submitted(submitted)
	r.Done(submitted)
	r.Done(later)
	r.Done(missing)
	r.Done(failed)

	out := buf.String()
	require.Contains(t, out, "1 - eligible, transaction sent")
	require.Contains(t, out, hash.Hex())
	require.Contains(t, out, "https://polygonscan.com/tx/"+hash.Hex())
	require.Contains(t, out, "(block 42)")
	require.Contains(t, out, "2 - claimable from: "+later.UnlockString())
	require.Contains(t, out, "3 - eligible, but address 0x00000000000000000000000000000000000000cc was not found")
	require.Contains(t, out, "4 - ❌ Error: execution reverted")
	require.Equal(t, 4, strings.Count(out, separator))

	buf.Reset()
	r.Summary(&claim.Report{Outcomes: []claim.Outcome{submitted, later, missing, failed}}, true)
	summary := buf.String()
	require.Contains(t, summary, "Processed 4 addresses")
	require.Contains(t, summary, "Claimed:          1")
	require.Contains(t, summary, "Transactions:     1")
}

func TestReporterInterleavedLinesCarryIndex(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	r := newReporter(&buf, false, false)

	// two workers: address 2 is sent, address 1 finishes, then address 2 fails
	sent := claim.Outcome{
		Index:       2,
		Status:      claim.StatusFailed,
		TxHash:      common.HexToHash("0x02"),
		ExplorerURL: "https://polygonscan.com/tx/0x02",
		Err:         errors.New("receipt timeout"),
	}
	r.Submitted(sent)
	r.Done(claim.Outcome{Index: 1, Status: claim.StatusNotYetEligible, UnlockTime: time.Unix(1999999999, 0)})
	r.Done(sent)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == separator {
			continue
		}
		require.True(t, strings.HasPrefix(line, "1 - ") || strings.HasPrefix(line, "2 - "), "line without index: %q", line)
	}
	require.Contains(t, buf.String(), "2 - 🔗 Hash:")
	require.Contains(t, buf.String(), "2 - 🌐 Explorer: https://polygonscan.com/tx/0x02")
	require.Contains(t, buf.String(), "2 - ❌ Error: receipt timeout")
}

func TestReporterQuiet(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	r := newReporter(&buf, true, false)
	r.Done(claim.Outcome{Index: 1, Status: claim.StatusFailed, Err: errors.New("boom")})
	require.Empty(t, buf.String())

	r.Summary(&claim.Report{}, false)
	require.Contains(t, buf.String(), "Processed 0 addresses")
	require.Contains(t, buf.String(), "Claimable now:    0")
}

func TestReporterSpinner(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, false, true)

	outcome := claim.Outcome{Index: 1, Status: claim.StatusSubmitted, TxHash: common.HexToHash("0x01")}
	r.Submitted(outcome)
	require.NotNil(t, r.bar)
	r.Done(outcome)
	require.Nil(t, r.bar)
}

func TestNormalizeMnemonic(t *testing.T) {
	require.Equal(t, "abandon about", normalizeMnemonic("  Abandon \n\tABOUT\n"))
}
