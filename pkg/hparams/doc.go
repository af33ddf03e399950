// Package hparams reads model hyperparameter documents.
//
// A document is kept as an ordered, nested [HParams] mapping so that every
// key of the source file survives a load/save cycle, and can additionally be
// decoded into the typed [Config] view used by training and inference code.
//
// JSON is the primary format and is parsed strictly; pass [WithRepair] to
// accept hand-edited files with trailing commas, comments or single quotes.
// YAML files are accepted based on their extension.
//
// Example usage:
//
//	hp, err := hparams.LoadFile("configs/base.json")
//	if err != nil {
//	    return err
//	}
//	rate, _ := hp.Sub("data").Int("sampling_rate")
//
//	cfg, _, err := hparams.LoadConfig("configs/base.json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Data.HopLength)
package hparams
