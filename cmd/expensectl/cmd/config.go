package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
	Long:  `Commands for generating backend configuration suited to the host.`,
}

var configRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate recommended backend settings",
	Long: `Inspects the host (CPU, RAM) and prints backend settings tuned for it.
The yaml output can be written straight to settings.yaml.`,
	RunE: runConfigRecommend,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configRecommendCmd)

	configRecommendCmd.Flags().StringVarP(&configOutput, "output", "o", "yaml",
		"Output format: text, json, yaml")
}

type hostInfo struct {
	CPUModel     string `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads   int    `json:"cpu_threads" yaml:"cpu_threads"`
	RAMGB        string `json:"ram_gb" yaml:"ram_gb"`
	OS           string `json:"os" yaml:"os"`
	Architecture string `json:"architecture" yaml:"architecture"`
}

type recommendedSettings struct {
	ListenAddr     string  `json:"listen_addr" yaml:"listen_addr"`
	DBType         string  `json:"db_type" yaml:"db_type"`
	LogFormat      string  `json:"log_format" yaml:"log_format"`
	RateLimitRPS   float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

type recommendation struct {
	Hardware        hostInfo            `json:"hardware" yaml:"hardware"`
	Recommendations recommendedSettings `json:"recommendations" yaml:"recommendations"`
}

func runConfigRecommend(cmd *cobra.Command, args []string) error {
	threads := runtime.NumCPU()
	cpuModel := "unknown"
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cpuModel = infos[0].ModelName
	}
	ramGB := "unknown"
	if vm, err := mem.VirtualMemory(); err == nil {
		ramGB = fmt.Sprintf("%.1f", float64(vm.Total)/(1024*1024*1024))
	}

	rec := recommendation{
		Hardware: hostInfo{
			CPUModel:     cpuModel,
			CPUThreads:   threads,
			RAMGB:        ramGB,
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
		},
		Recommendations: recommendedSettings{
			ListenAddr:     ":8080",
			DBType:         "sqlite",
			LogFormat:      "json",
			RateLimitRPS:   float64(threads * 2),
			RateLimitBurst: threads * 4,
		},
	}

	switch configOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(rec)
	default:
		fmt.Printf("Host: %s (%d threads, %s GB RAM, %s/%s)\n",
			rec.Hardware.CPUModel, rec.Hardware.CPUThreads, rec.Hardware.RAMGB,
			rec.Hardware.OS, rec.Hardware.Architecture)
		fmt.Printf("Recommended settings:\n")
		fmt.Printf("  listen_addr:      %s\n", rec.Recommendations.ListenAddr)
		fmt.Printf("  db_type:          %s\n", rec.Recommendations.DBType)
		fmt.Printf("  log_format:       %s\n", rec.Recommendations.LogFormat)
		fmt.Printf("  rate_limit_rps:   %.0f\n", rec.Recommendations.RateLimitRPS)
		fmt.Printf("  rate_limit_burst: %d\n", rec.Recommendations.RateLimitBurst)
		return nil
	}
}
