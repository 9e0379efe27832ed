package envparse

import (
	"fmt"
	"net/mail"
	"strconv"
	"time"
)

func PositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %v", d)
	}
	return d, nil
}

func NonNegativeNumber(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("number must not be negative: %v", n)
	}
	return n, nil
}

func MailAddress(value string) (*mail.Address, error) {
	return mail.ParseAddress(value)
}
