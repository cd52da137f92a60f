// Package main provides the momo CLI, a demo that fits a random least-squares
// problem with MoMo-Adam.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/born-ml/momo/internal/config"
	"github.com/born-ml/momo/optim"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("momo %s\n", version)
		return
	}

	configPath := flag.String("config", "", "YAML hyperparameter file (flags set explicitly override it)")
	steps := flag.Int("steps", 200, "Number of optimizer steps")
	samples := flag.Int("samples", 256, "Number of regression samples")
	features := flag.Int("features", 8, "Number of features")
	noise := flag.Float64("noise", 0, "Standard deviation of target noise")
	seed := flag.Int64("seed", 1, "Random seed")
	lr := flag.Float64("lr", 1.0, "Learning rate (upper bound on the adaptive step)")
	weightDecay := flag.Float64("wd", 0, "Decoupled weight decay")
	lb := flag.Float64("lb", 0, "Lower bound of the loss")
	logEvery := flag.Int("log-every", 20, "Log every N steps (0 disables progress logs)")
	resume := flag.String("resume", "", "Restore optimizer state from a checkpoint before training")
	save := flag.String("save", "", "Write optimizer state to a checkpoint after training")
	flag.Parse()

	cfg, err := buildConfig(*configPath, *lr, *weightDecay, *lb)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	problem := newLeastSquares(*samples, *features, *noise, rand.New(rand.NewSource(*seed)))
	optimizer, err := optim.NewMomo(problem.initParams(), cfg)
	if err != nil {
		log.Fatalf("Failed to create optimizer: %v", err)
	}
	if *resume != "" {
		if err := optimizer.LoadCheckpoint(*resume); err != nil {
			log.Fatalf("Failed to resume: %v", err)
		}
		log.Printf("Resumed from %s at step %d", *resume, optimizer.GetTimestep())
	}

	fmt.Printf("MoMo-Adam: %d samples, %d features, %d steps\n", *samples, *features, *steps)

	var loss float64
	for step := 0; step < *steps; step++ {
		l, grads, err := problem.lossAndGrad(optimizer.Params())
		if err != nil {
			log.Fatalf("Step %d: %v", step, err)
		}
		loss = l

		if err := optimizer.Step(grads, loss); err != nil {
			log.Fatalf("Step %d: %v", step, err)
		}
		if *logEvery > 0 && step%*logEvery == 0 {
			info := optimizer.LastStep()
			log.Printf("step=%d loss=%.6g lr=%.4g tau=%.4g", step, loss, info.Alpha, info.Tau)
		}
	}

	final, _, err := problem.lossAndGrad(optimizer.Params())
	if err != nil {
		log.Fatalf("Final evaluation: %v", err)
	}
	fmt.Printf("Final loss: %.6g (after %d steps)\n", final, optimizer.GetTimestep())

	if *save != "" {
		if err := optimizer.SaveCheckpoint(*save); err != nil {
			log.Fatalf("Failed to save checkpoint: %v", err)
		}
		fmt.Printf("Checkpoint saved to %s\n", *save)
	}
}

// buildConfig loads the YAML file when given and applies explicitly set flags on top.
func buildConfig(path string, lr, weightDecay, lb float64) (optim.MomoAdamConfig, error) {
	cfg := optim.MomoAdamConfig{
		LR:          optim.Constant(lr),
		WeightDecay: weightDecay,
		LB:          lb,
	}
	if path == "" {
		return cfg, nil
	}

	h, err := config.Load(path)
	if err != nil {
		return optim.MomoAdamConfig{}, err
	}
	fileCfg, err := h.MomoAdamConfig()
	if err != nil {
		return optim.MomoAdamConfig{}, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lr":
			fileCfg.LR = cfg.LR
		case "wd":
			fileCfg.WeightDecay = cfg.WeightDecay
		case "lb":
			fileCfg.LB = cfg.LB
		}
	})
	return fileCfg, nil
}
