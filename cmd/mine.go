package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"primechain/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine blocks on top of the current chain and print them",
	Long: `Mine menambang --blocks blok secara berurutan di atas tip chain, lalu
mencetak setiap blok. --blocks 0 menambang sampai dihentikan dengan Ctrl+C.`,
	RunE: runMine,
}

func init() {
	mineCmd.Flags().Int("blocks", 10, "Number of blocks to mine (0 = until interrupted)")
	viper.BindPFlag("blocks", mineCmd.Flags().Lookup("blocks"))
}

func runMine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	n, err := newNode(cfg)
	if err != nil {
		return err
	}
	defer n.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, n.blockchain.GetCurrentBlock())

	start := time.Now()
	mined, err := n.miner.Run(ctx, cfg.Blocks)
	for _, block := range mined {
		fmt.Fprintln(out, block)
	}
	if err != nil {
		return err
	}
	logger.Infof("Mined %d blocks in %v, chain length %d", len(mined), time.Since(start), n.blockchain.Length())
	return nil
}
