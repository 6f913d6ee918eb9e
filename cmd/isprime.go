package cmd

import (
	"fmt"

	"primechain/primality"
	"primechain/rpc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var isPrimeCmd = &cobra.Command{
	Use:   "isprime <n>",
	Short: "Run the Miller-Rabin oracle on a decimal or 0x-hex integer",
	Args:  cobra.ExactArgs(1),
	RunE:  runIsPrime,
}

func runIsPrime(cmd *cobra.Command, args []string) error {
	n, err := rpc.ParseInteger(args[0])
	if err != nil {
		return err
	}
	oracle := primality.NewOracle(viper.GetInt("rounds"), nil)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: probable prime = %t\n", n.String(), oracle.IsProbablyPrime(n))
	return nil
}
