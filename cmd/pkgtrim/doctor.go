package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/pkgtrim/internal/doctor"
	"github.com/conn-castle/pkgtrim/internal/helper"
	"github.com/conn-castle/pkgtrim/internal/messages"
)

// helperProbe is the part of the helper client doctor needs.
type helperProbe interface {
	Available(ctx context.Context) (bool, error)
	Close() error
}

var connectHelperFunc = func() (helperProbe, error) {
	client, err := helper.Connect()
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, messages.DoctorHeader)

			var allResults []doctor.Result

			configResults, cfg := doctor.CheckConfig(path)
			allResults = append(allResults, configResults...)

			if cfg != nil {
				pacmanResults, conf := doctor.CheckPacmanConf(cfg.PacmanConf)
				allResults = append(allResults, pacmanResults...)
				if conf != nil {
					resolved := cfg.ResolvePacman(*conf)
					dbResults, _ := doctor.CheckLocalDB(resolved.DBPath)
					allResults = append(allResults, dbResults...)
					allResults = append(allResults, doctor.CheckCacheDirs(resolved.CacheDirs)...)
				}
			}

			probe, connErr := connectHelperFunc()
			if connErr != nil {
				allResults = append(allResults, doctor.CheckHelper(cmd.Context(), nil, connErr))
			} else {
				allResults = append(allResults, doctor.CheckHelper(cmd.Context(), probe.Available, nil))
				_ = probe.Close()
			}

			for _, r := range allResults {
				printResult(out, r)
			}

			if doctor.HasFailure(allResults) {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorFailureSummary))
				return errors.New(messages.DoctorFailureError)
			}
			_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
			return nil
		},
	}
}

func printResult(out io.Writer, r doctor.Result) {
	var status string
	switch r.Status {
	case doctor.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case doctor.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case doctor.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}

	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent indentation.
func printRecommendation(out io.Writer, recommendation string) {
	lines := strings.Split(recommendation, "\n")
	for i, line := range lines {
		if i == 0 {
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
			continue
		}
		if line == "" {
			_, _ = fmt.Fprintf(out, "%s\n", messages.DoctorRecommendationIndent)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationIndent, line)
	}
}
