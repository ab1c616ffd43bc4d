/**
 * @description
 * Bill-payment categories and their per-category details. Each category carries its own
 * strongly-typed fields instead of the loose form-field bags the product started with,
 * and the ledger description is a pure function of the variant.
 */

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// BillCategory enumerates the supported bill-payment products.
type BillCategory string

const (
	BillAirtime     BillCategory = "Airtime"
	BillData        BillCategory = "Data"
	BillElectricity BillCategory = "Electricity"
	BillCableTV     BillCategory = "Cable TV"
	BillBetting     BillCategory = "Betting"
)

var ErrInvalidBillDetails = errors.New("invalid bill details")

// BillDetails is the tagged variant for a bill payment. Concrete types carry the
// metadata their category needs and render the history description.
type BillDetails interface {
	Category() BillCategory
	Description() string
	Validate() error
}

// AirtimeBill tops up a phone number.
type AirtimeBill struct {
	PhoneNumber string
}

func (b AirtimeBill) Category() BillCategory { return BillAirtime }

func (b AirtimeBill) Description() string {
	return fmt.Sprintf("Airtime purchase for %s", b.PhoneNumber)
}

func (b AirtimeBill) Validate() error {
	if strings.TrimSpace(b.PhoneNumber) == "" {
		return fmt.Errorf("%w: airtime requires a phone number", ErrInvalidBillDetails)
	}
	return nil
}

// DataBill buys a data bundle for a phone number.
type DataBill struct {
	PhoneNumber string
	Bundle      string
}

func (b DataBill) Category() BillCategory { return BillData }

func (b DataBill) Description() string {
	return fmt.Sprintf("Data bundle %s for %s", b.Bundle, b.PhoneNumber)
}

func (b DataBill) Validate() error {
	if strings.TrimSpace(b.PhoneNumber) == "" {
		return fmt.Errorf("%w: data bundle requires a phone number", ErrInvalidBillDetails)
	}
	if strings.TrimSpace(b.Bundle) == "" {
		return fmt.Errorf("%w: data bundle requires a bundle name", ErrInvalidBillDetails)
	}
	return nil
}

// ElectricityBill pays a prepaid or postpaid meter.
type ElectricityBill struct {
	MeterNumber string
}

func (b ElectricityBill) Category() BillCategory { return BillElectricity }

func (b ElectricityBill) Description() string {
	return fmt.Sprintf("Electricity payment for meter %s", b.MeterNumber)
}

func (b ElectricityBill) Validate() error {
	if strings.TrimSpace(b.MeterNumber) == "" {
		return fmt.Errorf("%w: electricity requires a meter number", ErrInvalidBillDetails)
	}
	return nil
}

// CableTVBill renews a decoder subscription.
type CableTVBill struct {
	SmartcardNumber string
}

func (b CableTVBill) Category() BillCategory { return BillCableTV }

func (b CableTVBill) Description() string {
	return fmt.Sprintf("Cable TV renewal for smartcard %s", b.SmartcardNumber)
}

func (b CableTVBill) Validate() error {
	if strings.TrimSpace(b.SmartcardNumber) == "" {
		return fmt.Errorf("%w: cable tv requires a smartcard number", ErrInvalidBillDetails)
	}
	return nil
}

// BettingBill funds a wallet on a betting platform.
type BettingBill struct {
	Platform       string
	PlatformUserID string
}

func (b BettingBill) Category() BillCategory { return BillBetting }

func (b BettingBill) Description() string {
	return fmt.Sprintf("Betting wallet top-up (%s / %s)", b.Platform, b.PlatformUserID)
}

func (b BettingBill) Validate() error {
	if strings.TrimSpace(b.Platform) == "" || strings.TrimSpace(b.PlatformUserID) == "" {
		return fmt.Errorf("%w: betting requires a platform and user id", ErrInvalidBillDetails)
	}
	return nil
}
