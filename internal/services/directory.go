package services

import (
	"errors"
	"fmt"

	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

// Principal is the common view of a logged-in identity, implemented by
// models.Consignor and models.Transporter.
type Principal interface {
	PrincipalID() uint
	PrincipalPhone() string
	PrincipalKind() string
}

// Directory is the per-principal-class capability the auth pipeline is
// parameterized over: how to resolve a login key, which tables the OTP and
// session rows live in, and whether validate refreshes last_used_at. The
// consignor and transporter flows are the same pipeline over two of these.
type Directory interface {
	Kind() string
	Namespace() storage.Namespace
	TracksLastUsed() bool

	// LookupByKey resolves the login identifier: phone number for
	// consignors, GST number for transporters.
	LookupByKey(key string) (Principal, error)
	LookupByID(id uint) (Principal, error)
}

// ConsignorDirectory resolves consignors by exact phone match.
type ConsignorDirectory struct {
	store storage.Store
}

func NewConsignorDirectory(store storage.Store) *ConsignorDirectory {
	return &ConsignorDirectory{store: store}
}

func (d *ConsignorDirectory) Kind() string                 { return "consignor" }
func (d *ConsignorDirectory) Namespace() storage.Namespace { return storage.ConsignorNS }
func (d *ConsignorDirectory) TracksLastUsed() bool         { return true }

func (d *ConsignorDirectory) LookupByKey(phone string) (Principal, error) {
	c, err := d.store.GetConsignorByPhone(phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("consignor lookup failed: %w", err)
	}
	return c, nil
}

func (d *ConsignorDirectory) LookupByID(id uint) (Principal, error) {
	c, err := d.store.GetConsignorByID(id)
	if err != nil {
		return nil, fmt.Errorf("consignor %d lookup failed: %w", id, err)
	}
	return c, nil
}

// Consignor re-types a Principal resolved through this directory.
func (d *ConsignorDirectory) Consignor(p Principal) (*models.Consignor, bool) {
	c, ok := p.(*models.Consignor)
	return c, ok
}

// TransporterDirectory resolves transporters by GST number.
type TransporterDirectory struct {
	store storage.Store
}

func NewTransporterDirectory(store storage.Store) *TransporterDirectory {
	return &TransporterDirectory{store: store}
}

func (d *TransporterDirectory) Kind() string                 { return "transporter" }
func (d *TransporterDirectory) Namespace() storage.Namespace { return storage.TransporterNS }
func (d *TransporterDirectory) TracksLastUsed() bool         { return false }

func (d *TransporterDirectory) LookupByKey(gst string) (Principal, error) {
	t, err := d.store.GetTransporterByGST(gst)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("transporter lookup failed: %w", err)
	}
	return t, nil
}

func (d *TransporterDirectory) LookupByID(id uint) (Principal, error) {
	t, err := d.store.GetTransporterByID(id)
	if err != nil {
		return nil, fmt.Errorf("transporter %d lookup failed: %w", id, err)
	}
	return t, nil
}

// Transporter re-types a Principal resolved through this directory.
func (d *TransporterDirectory) Transporter(p Principal) (*models.Transporter, bool) {
	t, ok := p.(*models.Transporter)
	return t, ok
}
