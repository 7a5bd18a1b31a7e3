package cmn

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

const VERSION = "0.1.0"
const LOG_NAME = "polstake.log"
const CONFIG_NAME = "config.yaml"

var DataFolder = "data"
var AppName = "polstake"
var LogPath = LOG_NAME
var ConfPath = CONFIG_NAME

var ConfigChanged = false

type SConfig struct {
	Verbosity      string        `yaml:"verbosity"`        // log verbosity
	BusTimeout     time.Duration `yaml:"bus_timeout"`      // timeout for bus requests
	BusHardTimeout time.Duration `yaml:"bus_hard_timeout"` // hard timeout for bus requests

	DefaultChain      string        `yaml:"default_chain"`       // chain assumed when detection fails
	ChainPollPeriod   time.Duration `yaml:"chain_poll_period"`   // active-chain re-detection period
	BalancePollPeriod time.Duration `yaml:"balance_poll_period"` // liquid balance refresh period

	EthereumRPC  string `yaml:"ethereum_rpc"`   // Ethereum mainnet RPC URL
	PolygonRPC   string `yaml:"polygon_rpc"`    // Polygon RPC URL
	RPCRateLimit int    `yaml:"rpc_rate_limit"` // max RPC calls per second per chain

	POLToken        string `yaml:"pol_token"`        // POL ERC20 contract on Ethereum
	StakingContract string `yaml:"staking_contract"` // delegation contract (approve spender)
	Validator       string `yaml:"validator"`        // validator address delegations go to

	ProviderURL string `yaml:"provider_url"` // staking provider API base URL
	SourceID    string `yaml:"source_id"`    // staking provider source id
	CompanyName string `yaml:"company_name"` // name used for provider token creation

	WalletAPIURL string `yaml:"wallet_api_url"` // smart-account wallet provider API
	WalletWSURL  string `yaml:"wallet_ws_url"`  // wallet provider event stream

	MinClaimAmount string `yaml:"min_claim_amount"` // POL below which claims are rejected

	TxPollInterval    time.Duration `yaml:"tx_poll_interval"`    // tx status poll period
	TxPollAttempts    int           `yaml:"tx_poll_attempts"`    // tx status poll bound
	ApproveGraceDelay time.Duration `yaml:"approve_grace_delay"` // wait before proceeding without an approval hash
	SettleDelay       time.Duration `yaml:"settle_delay"`        // wait before the balance-diff inference check
}

var Config *SConfig = &SConfig{ //Default config
	Verbosity:         "debug",
	BusTimeout:        3 * time.Minute,
	BusHardTimeout:    5 * time.Minute,
	DefaultChain:      "ethereum",
	ChainPollPeriod:   5 * time.Second,
	BalancePollPeriod: 30 * time.Second,
	EthereumRPC:       "https://eth.llamarpc.com",
	PolygonRPC:        "https://polygon-rpc.com",
	RPCRateLimit:      5,
	POLToken:          "0x455e53CBB86018Ac2B8092FdCd39d8444aFFC3F6",
	StakingContract:   "0x5e3Ef299fDDf15eAa0432E6e66473ace8c13D908",
	Validator:         "0xe483c7f156b25da9be6220049e5111bb41c4c535",
	ProviderURL:       "https://wallet-sdk-api.everstake.one",
	CompanyName:       "polstake",
	MinClaimAmount:    "2",
	TxPollInterval:    3 * time.Second,
	TxPollAttempts:    10,
	ApproveGraceDelay: 5 * time.Second,
	SettleDelay:       3 * time.Second,
}

func InitConfig() {
	var err error

	// Get the data folder
	DataFolder, err = GetDataFolder()
	if err != nil {
		fmt.Printf("error getting data folder: %v", err)
		os.Exit(1)
	}

	// Init logger
	LogPath = filepath.Join(DataFolder, LOG_NAME)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logFile, err := os.OpenFile(LogPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666) // truncate log file
	if err != nil {
		log.Fatal().Msgf("error opening log file: %v", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile})

	//Restore config from yaml file
	ConfPath = filepath.Join(DataFolder, CONFIG_NAME)
	err = RestoreConfig(ConfPath)
	if err != nil {
		log.Error().Msgf("error restoring config: %v", err)
	}

	switch Config.Verbosity {
	case "trace":
		log.Level(zerolog.TraceLevel)
	case "debug":
		log.Level(zerolog.DebugLevel)
	case "info":
		log.Level(zerolog.InfoLevel)
	case "warn":
		log.Level(zerolog.WarnLevel)
	case "error":
		log.Level(zerolog.ErrorLevel)
	case "fatal":
		log.Level(zerolog.FatalLevel)
	case "panic":
		log.Level(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Msgf("Log level: %s", Config.Verbosity)

	log.Trace().Msg("Started")

}

func SaveConfig() error {
	if !ConfigChanged {
		return nil
	}

	data, err := yaml.Marshal(Config)
	if err != nil {
		return err
	}

	err = os.WriteFile(ConfPath, data, 0666)
	if err != nil {
		return err
	}

	ConfigChanged = false
	return err
}

func RestoreConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		// it is ok. Let's use default config
		log.Warn().Msgf("no config file found: %v", err)
		return nil
	}

	err = yaml.Unmarshal(data, Config)
	if err != nil {
		return err
	}

	return err
}

func GetDataFolder() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "windows":
		// Get the local app data folder
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", fmt.Errorf("LOCALAPPDATA environment variable is not set")
		}
		dataDir = filepath.Join(localAppData, AppName)
	case "darwin":
		// Get the user's home directory
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting home directory: %v", err)
		}
		dataDir = filepath.Join(homeDir, "Library", "Application Support", AppName)
	case "linux":
		// Get the user's home directory
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting home directory: %v", err)
		}
		dataDir = filepath.Join(homeDir, "."+AppName)
	default:
		return "", fmt.Errorf("unsupported operating system")
	}

	// Create the directory if it doesn't exist
	err := os.MkdirAll(dataDir, os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("error creating data directory: %v", err)
	}

	return dataDir, nil
}
