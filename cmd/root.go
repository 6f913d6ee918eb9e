package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"primechain/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd merepresentasikan perintah dasar ketika dipanggil tanpa sub-perintah
var rootCmd = &cobra.Command{
	Use:   "primechain",
	Short: "Prime proof-of-work chain node",
	Long: `Primechain menambang blok yang representasi byte-nya, dibaca sebagai
integer big-endian, adalah bilangan prima menurut uji Miller-Rabin.`,
	SilenceUsage: true,
}

// Execute menambahkan semua perintah anak ke perintah root dan mengatur flag.
// Dipanggil oleh main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(startNodeCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(isPrimeCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.primechain/config.yaml or ./config.yaml)")

	// Default di sini hanya untuk help text; nilai efektif ditentukan viper.
	flags := rootCmd.PersistentFlags()
	flags.String("datadir", config.DefaultConfig.DataDir, "Data directory for chain data")
	flags.Bool("persist", config.DefaultConfig.Persist, "Persist blocks to LevelDB under datadir/chaindata")
	flags.String("log_level", config.DefaultConfig.LogLevel, "Logging level (debug, info, warn, error, fatal)")
	flags.Int("rounds", config.DefaultConfig.Rounds, "Miller-Rabin rounds per primality test")
	flags.Int("max_nonce_width", config.DefaultConfig.MaxNonceWidth, "Maximum nonce width in bytes (0 = 32)")
	flags.Duration("mining_timeout", config.DefaultConfig.MiningTimeout, "Per-block nonce search timeout (0 = unbounded)")
	flags.Int("workers", config.DefaultConfig.Workers, "Nonce search goroutines (1 = sequential)")
	flags.Int("initial_payload_len", config.DefaultConfig.InitialPayloadLen, "Payload length of block 0; block i carries initial_payload_len+i bytes")
	flags.String("genesis_data", config.DefaultConfig.GenesisData, "Genesis payload as hex (default 0x0117)")

	for _, name := range []string{
		"datadir", "persist", "log_level", "rounds", "max_nonce_width",
		"mining_timeout", "workers", "initial_payload_len", "genesis_data",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig membaca file konfigurasi dan variabel ENV jika ada.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".primechain"))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PRIMECHAIN") // PRIMECHAIN_DATADIR, PRIMECHAIN_WORKERS, ...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		fmt.Fprintf(os.Stderr, "Error reading config file '%s': %s\n", viper.ConfigFileUsed(), err)
	}
}
