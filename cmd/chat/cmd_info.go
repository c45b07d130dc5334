package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jan-server/services/chat-ui/internal/domain/identity"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the deployment and signed-in identity",
	RunE:  runInfo,
}

type deploymentInfo struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description,omitempty"`
	AvatarColor     string   `yaml:"avatar_color,omitempty"`
	AvatarIcon      string   `yaml:"avatar_icon,omitempty"`
	SampleQuestions []string `yaml:"sample_questions,omitempty"`
	Error           string   `yaml:"error,omitempty"`
}

type userInfo struct {
	Name        string  `yaml:"name"`
	GivenName   string  `yaml:"given_name"`
	FamilyName  string  `yaml:"family_name"`
	Email       *string `yaml:"email"`
	Sub         *string `yaml:"sub"`
	Initials    string  `yaml:"initials"`
	AvatarColor string  `yaml:"avatar_color"`
}

type infoReport struct {
	Gateway    string         `yaml:"gateway"`
	Deployment deploymentInfo `yaml:"deployment"`
	User       *userInfo      `yaml:"user,omitempty"`
	Theme      string         `yaml:"theme,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	client := newAPIClient(cmd, log)
	ctx := cmd.Context()

	report := infoReport{Gateway: gatewayURL(cmd)}

	d, err := client.Deployment(ctx)
	report.Deployment = deploymentInfo{
		Name:            d.Name,
		Description:     d.Description,
		AvatarColor:     d.AvatarColor,
		AvatarIcon:      d.AvatarIcon,
		SampleQuestions: d.SampleQuestions,
	}
	if err != nil {
		report.Deployment.Error = err.Error()
	}

	if p, err := client.Profile(ctx); err != nil {
		log.Warn().Err(err).Msg("load profile")
	} else {
		report.User = newUserInfo(p)
	}

	if t, err := client.Theme(ctx); err != nil {
		log.Warn().Err(err).Msg("load theme")
	} else {
		report.Theme = t.String()
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func newUserInfo(p *identity.Profile) *userInfo {
	return &userInfo{
		Name:        p.Name,
		GivenName:   p.GivenName,
		FamilyName:  p.FamilyName,
		Email:       p.Email,
		Sub:         p.Sub,
		Initials:    p.Initials(),
		AvatarColor: p.AvatarColor(),
	}
}
