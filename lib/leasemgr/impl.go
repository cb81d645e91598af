package leasemgr

import (
	"bytes"

	"github.com/okvlab/okv/lib/service"
)

type leaseMgrImpl struct {
	table service.ITable
}

func NewLeaseManager(table service.ITable) ILeaseManager {
	return &leaseMgrImpl{
		table: table,
	}
}

func (lm *leaseMgrImpl) AcquireLease(key string, ttl uint64) (bool, []byte, error) {
	// Generate owner token (256 bit random value)
	ownerToken, err := generateOwnerToken()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lease (by setting the value only if the key is
	// absent - atomic CAS operation)
	if err = lm.table.InsertIfAbsent(key, ownerToken, ttl); err != nil {
		return false, nil, err
	}

	// Check if the lease was acquired
	value, found, err := lm.table.Get(key)
	if err != nil {
		return false, nil, err
	}

	// Return true if the lease was acquired BY US
	if found && bytes.Equal(value, ownerToken) {
		return true, ownerToken, nil
	}
	// Return false if the lease was acquired BY SOMEONE ELSE in the meantime
	return false, nil, nil
}

func (lm *leaseMgrImpl) ReleaseLease(key string, ownerToken []byte) (bool, error) {
	// Check if the lease exists
	value, ok, err := lm.table.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lease is owned by us
	if !bytes.Equal(ownerToken, value) {
		return false, nil
	}

	// Release the lease
	err = lm.table.Remove(key)
	return err == nil, err
}
