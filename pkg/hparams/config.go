package hparams

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Config is the typed view of a hyperparameter document. Keys not listed
// here stay available through the HParams document returned by LoadConfig.
type Config struct {
	Train    TrainConfig `json:"train,omitempty"`
	Data     DataConfig  `json:"data"`
	Model    ModelConfig `json:"model,omitempty"`
	ModelDir string      `json:"model_dir,omitempty"`
}

// TrainConfig holds optimisation settings.
type TrainConfig struct {
	LogInterval  int       `json:"log_interval,omitempty"`
	EvalInterval int       `json:"eval_interval,omitempty"`
	Seed         int64     `json:"seed,omitempty"`
	Epochs       int       `json:"epochs,omitempty"`
	LearningRate float64   `json:"learning_rate,omitempty"`
	Betas        []float64 `json:"betas,omitempty"`
	Eps          float64   `json:"eps,omitempty"`
	BatchSize    int       `json:"batch_size,omitempty"`
	FP16Run      bool      `json:"fp16_run,omitempty"`
	LRDecay      float64   `json:"lr_decay,omitempty"`
	SegmentSize  int       `json:"segment_size,omitempty"`
	InitLRRatio  float64   `json:"init_lr_ratio,omitempty"`
	WarmupEpochs int       `json:"warmup_epochs,omitempty"`
	CMel         float64   `json:"c_mel,omitempty"`
	CKL          float64   `json:"c_kl,omitempty"`
}

// DataConfig describes the audio front end.
type DataConfig struct {
	TrainingFiles   string   `json:"training_files,omitempty"`
	ValidationFiles string   `json:"validation_files,omitempty"`
	TextCleaners    []string `json:"text_cleaners,omitempty"`
	MaxWavValue     float64  `json:"max_wav_value,omitempty"`
	SamplingRate    int      `json:"sampling_rate"`
	FilterLength    int      `json:"filter_length,omitempty"`
	HopLength       int      `json:"hop_length,omitempty"`
	WinLength       int      `json:"win_length,omitempty"`
	NMelChannels    int      `json:"n_mel_channels,omitempty"`
	MelFmin         float64  `json:"mel_fmin,omitempty"`
	MelFmax         *float64 `json:"mel_fmax,omitempty"`
	AddBlank        bool     `json:"add_blank,omitempty"`
	NSpeakers       int      `json:"n_speakers,omitempty"`
	CleanedText     bool     `json:"cleaned_text,omitempty"`
}

// ModelConfig describes the network shape.
type ModelConfig struct {
	InterChannels          int     `json:"inter_channels,omitempty"`
	HiddenChannels         int     `json:"hidden_channels,omitempty"`
	FilterChannels         int     `json:"filter_channels,omitempty"`
	NHeads                 int     `json:"n_heads,omitempty"`
	NLayers                int     `json:"n_layers,omitempty"`
	KernelSize             int     `json:"kernel_size,omitempty"`
	PDropout               float64 `json:"p_dropout,omitempty"`
	Resblock               string  `json:"resblock,omitempty"`
	ResblockKernelSizes    []int   `json:"resblock_kernel_sizes,omitempty"`
	ResblockDilationSizes  [][]int `json:"resblock_dilation_sizes,omitempty"`
	UpsampleRates          []int   `json:"upsample_rates,omitempty"`
	UpsampleInitialChannel int     `json:"upsample_initial_channel,omitempty"`
	UpsampleKernelSizes    []int   `json:"upsample_kernel_sizes,omitempty"`
	NLayersQ               int     `json:"n_layers_q,omitempty"`
	UseSpectralNorm        bool    `json:"use_spectral_norm,omitempty"`
	GinChannels            int     `json:"gin_channels,omitempty"`
}

// LoadConfig loads path and decodes it into a Config. The full document is
// returned alongside so callers can reach keys Config does not model.
func LoadConfig(path string, opts ...ParseOption) (*Config, *HParams, error) {
	h, err := LoadFile(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	var cfg Config
	if err := h.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("hparams: load %s: %w", path, err)
	}
	return &cfg, h, nil
}

var (
	schemaOnce     sync.Once
	schemaResolved *jsonschema.Resolved
	schemaErr      error
)

// Schema returns the JSON schema of Config. Unknown keys are allowed at every
// level since real documents carry many more settings than Config models.
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[Config](nil)
	if err != nil {
		return nil, err
	}
	allowExtra(s)
	return s, nil
}

func resolvedSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		s, err := Schema()
		if err != nil {
			schemaErr = err
			return
		}
		schemaResolved, schemaErr = s.Resolve(nil)
	})
	return schemaResolved, schemaErr
}

func allowExtra(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	for _, p := range s.Properties {
		allowExtra(p)
	}
	allowExtra(s.Items)
}

// ValidateDocument checks h against the Config schema.
func ValidateDocument(h *HParams) error {
	rs, err := resolvedSchema()
	if err != nil {
		return fmt.Errorf("hparams: schema: %w", err)
	}
	data, err := h.MarshalJSON()
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return err
	}
	if err := rs.Validate(instance); err != nil {
		return fmt.Errorf("hparams: invalid document: %w", err)
	}
	return nil
}

// Validate reports semantic problems with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.SamplingRate <= 0 {
		errs = append(errs, fmt.Errorf("data.sampling_rate must be positive, got %d", c.Data.SamplingRate))
	}
	if c.Data.HopLength < 0 || c.Data.WinLength < 0 || c.Data.FilterLength < 0 {
		errs = append(errs, errors.New("data: negative stft length"))
	}
	if c.Data.HopLength > 0 && c.Data.WinLength > 0 && c.Data.HopLength > c.Data.WinLength {
		errs = append(errs, fmt.Errorf("data.hop_length %d exceeds win_length %d", c.Data.HopLength, c.Data.WinLength))
	}
	if c.Data.WinLength > 0 && c.Data.FilterLength > 0 && c.Data.WinLength > c.Data.FilterLength {
		errs = append(errs, fmt.Errorf("data.win_length %d exceeds filter_length %d", c.Data.WinLength, c.Data.FilterLength))
	}
	if c.Data.MelFmax != nil && *c.Data.MelFmax > float64(c.Data.SamplingRate)/2 {
		errs = append(errs, fmt.Errorf("data.mel_fmax %.0f exceeds nyquist %d", *c.Data.MelFmax, c.Data.SamplingRate/2))
	}
	if c.Train.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("train.batch_size must not be negative, got %d", c.Train.BatchSize))
	}
	if len(c.Model.ResblockKernelSizes) != len(c.Model.ResblockDilationSizes) {
		errs = append(errs, fmt.Errorf("model: %d resblock kernel sizes but %d dilation sets",
			len(c.Model.ResblockKernelSizes), len(c.Model.ResblockDilationSizes)))
	}
	if len(c.Model.UpsampleRates) != len(c.Model.UpsampleKernelSizes) {
		errs = append(errs, fmt.Errorf("model: %d upsample rates but %d kernel sizes",
			len(c.Model.UpsampleRates), len(c.Model.UpsampleKernelSizes)))
	}
	if f := c.UpsampleFactor(); len(c.Model.UpsampleRates) > 0 && c.Data.HopLength > 0 && f != c.Data.HopLength {
		errs = append(errs, fmt.Errorf("model: upsample factor %d does not match data.hop_length %d", f, c.Data.HopLength))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("hparams: %w", errors.Join(errs...))
}

// UpsampleFactor returns the product of the decoder upsample rates. It must
// equal data.hop_length for generated audio to line up with the spectrogram.
func (c *Config) UpsampleFactor() int {
	f := 1
	for _, r := range c.Model.UpsampleRates {
		f *= r
	}
	return f
}
