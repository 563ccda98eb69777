// Package app provides save state functionality for the NES emulator.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mp3/ccnes/internal/console"
)

// StateManager persists and restores console.Console save states as
// numbered slot files on disk, one file per ROM per slot.
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// StateSlotInfo describes a single save-state slot on disk.
type StateSlotInfo struct {
	SlotNumber int
	Used       bool
	Timestamp  time.Time
	FilePath   string
	FileSize   int64
}

// NewStateManager creates a new state manager rooted at saveDirectory.
func NewStateManager(saveDirectory string) *StateManager {
	sm := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10,
	}
	if err := sm.initialize(); err != nil {
		fmt.Printf("warning: state manager initialization failed: %v\n", err)
	}
	return sm
}

func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	sm.initialized = true
	return nil
}

// SaveState captures c's current state and writes it to slot.
func (sm *StateManager) SaveState(c *console.Console, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	data, err := c.SaveState()
	if err != nil {
		return fmt.Errorf("capturing save state: %w", err)
	}

	path := sm.getSlotFilePath(slot, romPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating save state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing save state: %w", err)
	}
	return nil
}

// LoadState restores c's state from slot.
func (sm *StateManager) LoadState(c *console.Console, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	path := sm.getSlotFilePath(slot, romPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("save state not found in slot %d: %w", slot, err)
	}

	if err := c.LoadState(data); err != nil {
		return fmt.Errorf("restoring save state: %w", err)
	}
	return nil
}

// getSlotFilePath generates the file path for a save slot, named after
// the ROM so different games don't collide in the same directory.
func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romNameWithoutExt := romName[:len(romName)-len(filepath.Ext(romName))]
	fileName := fmt.Sprintf("%s_slot_%d.ccst", romNameWithoutExt, slot)
	return filepath.Join(sm.saveDirectory, fileName)
}

// GetSlotInfo returns information about all save slots for romPath.
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := 0; i < sm.maxSlots; i++ {
		slotInfo := StateSlotInfo{SlotNumber: i}
		path := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(path); err == nil {
			slotInfo.Used = true
			slotInfo.FilePath = path
			slotInfo.FileSize = stat.Size()
			slotInfo.Timestamp = stat.ModTime()
		}
		slots[i] = slotInfo
	}
	return slots
}

// DeleteState removes the save state in slot, if any.
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d", slot)
	}
	path := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}
	return os.Remove(path)
}

// HasSaveState reports whether slot has a save state for romPath.
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, romPath))
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots.
func (sm *StateManager) GetMaxSlots() int { return sm.maxSlots }

// SetMaxSlots sets the maximum number of save slots.
func (sm *StateManager) SetMaxSlots(slots int) {
	if slots > 0 {
		sm.maxSlots = slots
	}
}

// GetSaveDirectory returns the save directory path.
func (sm *StateManager) GetSaveDirectory() string { return sm.saveDirectory }

// SetSaveDirectory changes the save directory, creating it if needed.
func (sm *StateManager) SetSaveDirectory(directory string) error {
	sm.saveDirectory = directory
	return sm.initialize()
}

// Cleanup releases state manager resources.
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}
