// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// BitField describes a field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo holds register metadata.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterValue is a register read back from the device.
type RegisterValue struct {
	RegisterInfo
	Value byte `json:"value"`
}

// TSL2591RegisterMap returns metadata for the TSL2591 registers.
func TSL2591RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: tslRegEnable, Name: "ENABLE", Description: "Enables states and interrupts", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "NPIEN", Description: "No persist interrupt enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "SAI", Description: "Sleep after interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "AIEN", Description: "ALS interrupt enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "AEN", Description: "ALS enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "PON", Description: "Power on", Values: "0=Off, 1=On"},
			}},
		{Address: tslRegControl, Name: "CONTROL", Description: "ALS gain and integration time", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "SRESET", Description: "System reset", Values: "1=Reset"},
				{Bits: "5:4", Name: "AGAIN", Description: "ALS gain", Values: "0=1x, 1=25x, 2=428x, 3=9876x"},
				{Bits: "2:0", Name: "ATIME", Description: "ALS integration time", Values: "0=100ms, 1=200ms, 2=300ms, 3=400ms, 4=500ms, 5=600ms"},
			}},
		{Address: 0x04, Name: "AILTL", Description: "ALS interrupt low threshold low byte", Access: "RW", Default: "0x00"},
		{Address: 0x05, Name: "AILTH", Description: "ALS interrupt low threshold high byte", Access: "RW", Default: "0x00"},
		{Address: 0x06, Name: "AIHTL", Description: "ALS interrupt high threshold low byte", Access: "RW", Default: "0x00"},
		{Address: 0x07, Name: "AIHTH", Description: "ALS interrupt high threshold high byte", Access: "RW", Default: "0x00"},
		{Address: 0x0C, Name: "PERSIST", Description: "Interrupt persistence filter", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "3:0", Name: "APERS", Description: "ALS interrupt persistence", Values: "0=Every cycle ... 15=60 consecutive"},
			}},
		{Address: tslRegPID, Name: "PID", Description: "Package ID", Access: "R",
			BitFields: []BitField{
				{Bits: "5:4", Name: "PID", Description: "Package identification"},
			}},
		{Address: tslRegID, Name: "ID", Description: "Device ID", Access: "R", Default: "0x50"},
		{Address: tslRegStatus, Name: "STATUS", Description: "Device status", Access: "R",
			BitFields: []BitField{
				{Bits: "5", Name: "NPINTR", Description: "No persist interrupt flag"},
				{Bits: "4", Name: "AINT", Description: "ALS interrupt flag"},
				{Bits: "0", Name: "AVALID", Description: "ALS valid", Values: "1=Integration cycle complete"},
			}},
		{Address: tslRegC0DataL, Name: "C0DATAL", Description: "CH0 ADC low byte (full spectrum)", Access: "R"},
		{Address: 0x15, Name: "C0DATAH", Description: "CH0 ADC high byte (full spectrum)", Access: "R"},
		{Address: 0x16, Name: "C1DATAL", Description: "CH1 ADC low byte (infrared)", Access: "R"},
		{Address: 0x17, Name: "C1DATAH", Description: "CH1 ADC high byte (infrared)", Access: "R"},
	}
}

// DumpRegisters reads every readable register in the map.
func (t *TSL2591) DumpRegisters() ([]RegisterValue, error) {
	regs := TSL2591RegisterMap()
	out := make([]RegisterValue, 0, len(regs))
	for _, info := range regs {
		v, err := t.ReadRegister(info.Address)
		if err != nil {
			return out, fmt.Errorf("tsl2591: read %s (0x%02X): %w", info.Name, info.Address, err)
		}
		out = append(out, RegisterValue{RegisterInfo: info, Value: v})
	}
	return out, nil
}
