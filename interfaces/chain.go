package interfaces

// ChainConfigItf mendefinisikan metode yang dibutuhkan dari konfigurasi chain.
type ChainConfigItf interface {
	GetDataDir() string
	GetGenesisData() []byte
}

// PayloadSource menghasilkan payload untuk blok berikutnya.
type PayloadSource interface {
	Next(number uint64) []byte
}
