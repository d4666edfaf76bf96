package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig
	DCA      DCAConfig
	Database DatabaseConfig
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl      string
	WSUrl        string
	ApiKey       string
	Secret       string
	PaperTrading bool
}

// DCAConfig — параметры стратегии. Снимок этих полей сохраняется в сделке
// при создании, дальнейшие правки конфига открытую сделку не меняют.
type DCAConfig struct {
	Pair                       string
	Strategy                   string
	BaseOrderSize              decimal.Decimal
	SafetyOrderSize            decimal.Decimal
	StartOrderType             string
	DealStartCondition         string
	TargetProfitPercentage     decimal.Decimal
	MaxSafetyTradesCount       int
	MaxActiveSafetyTradesCount int
	PriceDeviationPercentage   decimal.Decimal
	SafetyOrderVolumeScale     decimal.Decimal
	SafetyOrderStepScale       decimal.Decimal
}

type DatabaseConfig struct {
	DSN string
}

type RuntimeConfig struct {
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool

	// cron-выражение периодической сверки, по умолчанию раз в минуту
	ReconcileSchedule string
}

func Load() (*Config, error) {
	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	cfg.Exchange = ExchangeConfig{
		BaseUrl:      viper.GetString("exchange.base_url"),
		WSUrl:        viper.GetString("exchange.ws_url"),
		ApiKey:       envSub("exchange.api_key"),
		Secret:       envSub("exchange.secret"),
		PaperTrading: viper.GetBool("exchange.paper_trading"),
	}

	dca, err := loadDCA()
	if err != nil {
		return nil, err
	}
	cfg.DCA = dca

	cfg.Database = DatabaseConfig{
		DSN: envSub("database.dsn"),
	}

	cfg.Runtime = RuntimeConfig{
		LogLevel:          viper.GetString("runtime.log_level"),
		LogFormat:         viper.GetString("runtime.log_format"),
		LogFile:           viper.GetString("runtime.log_file"),
		LogMaxSize:        viper.GetInt("runtime.log_max_size"),
		LogMaxBackups:     viper.GetInt("runtime.log_max_backups"),
		LogMaxAge:         viper.GetInt("runtime.log_max_age"),
		LogCompress:       viper.GetBool("runtime.log_compress"),
		ReconcileSchedule: viper.GetString("runtime.reconcile_schedule"),
	}
	if cfg.Runtime.ReconcileSchedule == "" {
		cfg.Runtime.ReconcileSchedule = "* * * * *"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDCA() (DCAConfig, error) {
	dca := DCAConfig{
		Pair:                       viper.GetString("dca.pair"),
		Strategy:                   viper.GetString("dca.strategy"),
		StartOrderType:             viper.GetString("dca.start_order_type"),
		DealStartCondition:         viper.GetString("dca.deal_start_condition"),
		MaxSafetyTradesCount:       viper.GetInt("dca.max_safety_trades_count"),
		MaxActiveSafetyTradesCount: viper.GetInt("dca.max_active_safety_trades_count"),
	}

	var err error
	for _, field := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"dca.base_order_size", &dca.BaseOrderSize},
		{"dca.safety_order_size", &dca.SafetyOrderSize},
		{"dca.target_profit_percentage", &dca.TargetProfitPercentage},
		{"dca.price_deviation_percentage", &dca.PriceDeviationPercentage},
		{"dca.safety_order_volume_scale", &dca.SafetyOrderVolumeScale},
		{"dca.safety_order_step_scale", &dca.SafetyOrderStepScale},
	} {
		*field.dst, err = decimal.NewFromString(viper.GetString(field.key))
		if err != nil {
			return DCAConfig{}, fmt.Errorf("некорректное значение %s: %w", field.key, err)
		}
	}
	return dca, nil
}

func (c *Config) Validate() error {
	if c.DCA.Pair == "" {
		return fmt.Errorf("не задана торговая пара")
	}
	if c.DCA.Strategy != "LONG" {
		return fmt.Errorf("неподдерживаемая стратегия: %q", c.DCA.Strategy)
	}
	if !c.DCA.BaseOrderSize.IsPositive() {
		return fmt.Errorf("base_order_size должен быть больше нуля")
	}
	if !c.DCA.SafetyOrderSize.IsPositive() {
		return fmt.Errorf("safety_order_size должен быть больше нуля")
	}
	if c.DCA.MaxSafetyTradesCount < 0 {
		return fmt.Errorf("max_safety_trades_count не может быть отрицательным")
	}
	if c.DCA.MaxActiveSafetyTradesCount < 0 {
		return fmt.Errorf("max_active_safety_trades_count не может быть отрицательным")
	}
	if c.DCA.TargetProfitPercentage.IsNegative() {
		return fmt.Errorf("target_profit_percentage не может быть отрицательным")
	}
	if c.DCA.MaxSafetyTradesCount > 0 {
		if !c.DCA.PriceDeviationPercentage.IsPositive() {
			return fmt.Errorf("price_deviation_percentage должен быть больше нуля")
		}
		if !c.DCA.SafetyOrderVolumeScale.IsPositive() {
			return fmt.Errorf("safety_order_volume_scale должен быть больше нуля")
		}
		if !c.DCA.SafetyOrderStepScale.IsPositive() {
			return fmt.Errorf("safety_order_step_scale должен быть больше нуля")
		}
	}
	return nil
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
