package main

import (
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/brokenhouse/dronecore/config"
)

var (
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func statusCmd() *cobra.Command {
	var configPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a running droneclient's front-end listener is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(configPath, timeout)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "droneclient.yaml", "path to the YAML configuration file")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "dial timeout")
	return cmd
}

func runStatus(configPath string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println(statusKeyStyle.Render("self:") + " " + fmt.Sprint(cfg.Self))
	fmt.Println(statusKeyStyle.Render("frontend address:") + " " + cfg.Frontend.Address)

	start := time.Now()
	conn, err := net.DialTimeout("tcp", cfg.Frontend.Address, timeout)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		fmt.Println(statusErrStyle.Render("unreachable") + fmt.Sprintf(" (%s, gave up after %s)", err, elapsed))
		return nil
	}
	defer conn.Close()

	fmt.Println(statusOKStyle.Render("reachable") + fmt.Sprintf(" (dial took %s, checked %s)", elapsed, humanize.Time(start)))
	return nil
}
