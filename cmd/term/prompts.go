package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

func promptPhaseCount() (int, error) {
	var raw string
	err := huh.NewInput().
		Title("Number of phases to skip").
		Value(&raw).
		Validate(func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n < 1 {
				return fmt.Errorf("enter a positive whole number")
			}
			return nil
		}).
		Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func promptLocation(workName, homeName string) (string, error) {
	var location string
	err := huh.NewSelect[string]().
		Title("Where are you?").
		Options(
			huh.NewOption(workName, "w"),
			huh.NewOption(homeName, "h"),
		).
		Value(&location).
		Run()
	if err != nil {
		return "", err
	}
	return location, nil
}
