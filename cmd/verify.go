package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify linkage and proof of work of the stored chain",
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Persist {
		return fmt.Errorf("verify needs a persisted chain, run with --persist")
	}
	n, err := newNode(cfg)
	if err != nil {
		return err
	}
	defer n.close()

	if err := n.blockchain.Verify(n.engine); err != nil {
		return fmt.Errorf("chain invalid: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chain valid: %d blocks, tip %s\n", n.blockchain.Length(), n.blockchain.Tip().Hex())
	return nil
}
