package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/chinmay1088/claimer/claim"
	"github.com/chinmay1088/claimer/config"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

const separator = "---------------------------------------------"

// reporter prints outcomes as the driver produces them
type reporter struct {
	out     io.Writer
	quiet   bool
	spinner bool

	bar  *progressbar.ProgressBar
	stop chan struct{}
	done chan struct{}
}

func newReporter(out io.Writer, quiet, spinner bool) *reporter {
	return &reporter{out: out, quiet: quiet, spinner: spinner}
}

func (r *reporter) Submitted(outcome claim.Outcome) {
	if r.quiet {
		return
	}

	fmt.Fprintf(r.out, "%d - %s, transaction sent\n", outcome.Index, color.GreenString("eligible"))
	fmt.Fprintf(r.out, "%d - 🔗 Hash:     %s\n", outcome.Index, outcome.TxHash.Hex())
	if outcome.ExplorerURL != "" {
		fmt.Fprintf(r.out, "%d - 🌐 Explorer: %s\n", outcome.Index, color.CyanString(outcome.ExplorerURL))
	}

	if r.spinner {
		r.startSpinner()
	}
}

func (r *reporter) Done(outcome claim.Outcome) {
	r.stopSpinner()
	if r.quiet {
		return
	}

	switch outcome.Status {
	case claim.StatusSubmitted:
		if outcome.ReceiptStatus == types.ReceiptStatusSuccessful {
			fmt.Fprintf(r.out, "%d - ✅ Status:   %s (block %s)\n", outcome.Index, color.GreenString("%d", outcome.ReceiptStatus), outcome.BlockNumber)
		} else {
			fmt.Fprintf(r.out, "%d - ❌ Status:   %s (block %s)\n", outcome.Index, color.RedString("%d reverted", outcome.ReceiptStatus), outcome.BlockNumber)
		}

	case claim.StatusEligible:
		fmt.Fprintf(r.out, "%d - %s %s\n", outcome.Index, outcome.Address, color.GreenString("can claim now"))

	case claim.StatusNotYetEligible:
		fmt.Fprintf(r.out, "%d - claimable from: %s\n", outcome.Index, color.YellowString(outcome.UnlockString()))

	case claim.StatusMissingCredential:
		fmt.Fprintf(r.out, "%d - %s, but address %s was not found in the accounts file\n",
			outcome.Index, color.GreenString("eligible"), outcome.Address)

	case claim.StatusFailed:
		fmt.Fprintf(r.out, "%d - ❌ Error: %v\n", outcome.Index, outcome.Err)
	}

	fmt.Fprintln(r.out, separator)
}

// Summary prints per-status counts
func (r *reporter) Summary(report *claim.Report, submit bool) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "📊 Processed %d addresses\n", len(report.Outcomes))
	if submit {
		fmt.Fprintf(r.out, "   Claimed:          %s\n", color.GreenString("%d", report.Count(claim.StatusSubmitted)))
	} else {
		fmt.Fprintf(r.out, "   Claimable now:    %s\n", color.GreenString("%d", report.Count(claim.StatusEligible)))
	}
	fmt.Fprintf(r.out, "   Not yet eligible: %s\n", color.YellowString("%d", report.Count(claim.StatusNotYetEligible)))
	fmt.Fprintf(r.out, "   Missing key:      %s\n", color.YellowString("%d", report.Count(claim.StatusMissingCredential)))
	fmt.Fprintf(r.out, "   Failed:           %s\n", color.RedString("%d", report.Count(claim.StatusFailed)))
	if submit {
		fmt.Fprintf(r.out, "   Transactions:     %d\n", report.Transactions())
	}
}

// Header prints the settings a run uses
func (r *reporter) Header(cfg *config.Config, addresses int, submit bool) {
	if r.quiet {
		return
	}

	mode := "claim"
	if !submit {
		mode = "check only"
	}
	fmt.Fprintf(r.out, "🌐 Network:   %s\n", color.CyanString(cfg.Network))
	fmt.Fprintf(r.out, "📜 Contract:  %s\n", cfg.Contract().Hex())
	fmt.Fprintf(r.out, "📋 Addresses: %d (%s)\n", addresses, mode)
	if submit {
		gasPrice, _ := cfg.GasPriceWei()
		fmt.Fprintf(r.out, "⛽ Gas:       %d units at %s\n", cfg.GasLimit, config.FormatGwei(gasPrice))
	}
	fmt.Fprintln(r.out, separator)
}

func (r *reporter) startSpinner() {
	r.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan]waiting for receipt...[reset]"),
		progressbar.OptionClearOnFinish(),
	)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func(bar *progressbar.ProgressBar, stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(r.bar, r.stop, r.done)
}

func (r *reporter) stopSpinner() {
	if r.bar == nil {
		return
	}
	close(r.stop)
	<-r.done
	_ = r.bar.Finish()
	r.bar = nil
}
