package cpu

// getReg/setReg decode the 3-bit register field used throughout the SM83
// encoding: 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A.
func (c *CPU) getReg(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) setReg(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}

func (c *CPU) cond(code byte) bool {
	switch code {
	case 0:
		return !c.flag(FlagZ)
	case 1:
		return c.flag(FlagZ)
	case 2:
		return !c.flag(FlagC)
	default:
		return c.flag(FlagC)
	}
}

// execute dispatches one base (non-CB) opcode. Table-driven for the large
// regular blocks (LD r,r'; the ALU r8 block), explicit cases elsewhere.
func (c *CPU) execute(op byte) {
	switch {
	case op == 0x76: // HALT
		if !c.IME && c.ic.HasPending() {
			c.haltBug = true
		} else {
			c.halted = true
		}
		return
	case op >= 0x40 && op <= 0x7F: // LD r,r'
		d, s := (op>>3)&7, op&7
		c.setReg(d, c.getReg(s))
		return
	case op >= 0x80 && op <= 0xBF: // ALU A,r
		c.aluOp((op>>3)&7, c.getReg(op&7))
		return
	}

	switch op {
	case 0x00: // NOP
	case 0x10: // STOP
		c.fetch8() // STOP is followed by a padding byte
		c.stopped = true
	case 0x76: // handled above; unreachable
	case 0xF3: // DI
		c.IME = false
		c.imeDelay = false
	case 0xFB: // EI
		c.requestEI()

	// 8-bit immediate loads
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		c.setReg((op>>3)&7, c.fetch8())

	// 16-bit register loads
	case 0x01:
		c.setBC(c.fetch16())
	case 0x11:
		c.setDE(c.fetch16())
	case 0x21:
		c.setHL(c.fetch16())
	case 0x31:
		c.SP = c.fetch16()
	case 0x08: // LD (a16),SP
		c.write16(c.fetch16(), c.SP)
	case 0xF9: // LD SP,HL
		c.bus.Tick()
		c.SP = c.getHL()
	case 0xF8: // LD HL,SP+r8
		r8 := c.fetch8()
		c.bus.Tick()
		c.setHL(c.addSPSigned(c.SP, r8))

	// indirect A loads
	case 0x02:
		c.write8(c.getBC(), c.A)
	case 0x12:
		c.write8(c.getDE(), c.A)
	case 0x0A:
		c.A = c.read8(c.getBC())
	case 0x1A:
		c.A = c.read8(c.getDE())
	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
	case 0xEA: // LD (a16),A
		c.write8(c.fetch16(), c.A)
	case 0xFA: // LD A,(a16)
		c.A = c.read8(c.fetch16())
	case 0xE0: // LDH (a8),A
		c.write8(0xFF00+uint16(c.fetch8()), c.A)
	case 0xF0: // LDH A,(a8)
		c.A = c.read8(0xFF00 + uint16(c.fetch8()))
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.C), c.A)
	case 0xF2: // LD A,(C)
		c.A = c.read8(0xFF00 + uint16(c.C))

	// INC/DEC r8
	case 0x04:
		c.B = c.inc8(c.B)
	case 0x0C:
		c.C = c.inc8(c.C)
	case 0x14:
		c.D = c.inc8(c.D)
	case 0x1C:
		c.E = c.inc8(c.E)
	case 0x24:
		c.H = c.inc8(c.H)
	case 0x2C:
		c.L = c.inc8(c.L)
	case 0x34:
		c.write8(c.getHL(), c.inc8(c.read8(c.getHL())))
	case 0x3C:
		c.A = c.inc8(c.A)
	case 0x05:
		c.B = c.dec8(c.B)
	case 0x0D:
		c.C = c.dec8(c.C)
	case 0x15:
		c.D = c.dec8(c.D)
	case 0x1D:
		c.E = c.dec8(c.E)
	case 0x25:
		c.H = c.dec8(c.H)
	case 0x2D:
		c.L = c.dec8(c.L)
	case 0x35:
		c.write8(c.getHL(), c.dec8(c.read8(c.getHL())))
	case 0x3D:
		c.A = c.dec8(c.A)

	// INC/DEC r16
	case 0x03:
		c.bus.Tick()
		c.setBC(c.getBC() + 1)
	case 0x13:
		c.bus.Tick()
		c.setDE(c.getDE() + 1)
	case 0x23:
		c.bus.Tick()
		c.setHL(c.getHL() + 1)
	case 0x33:
		c.bus.Tick()
		c.SP++
	case 0x0B:
		c.bus.Tick()
		c.setBC(c.getBC() - 1)
	case 0x1B:
		c.bus.Tick()
		c.setDE(c.getDE() - 1)
	case 0x2B:
		c.bus.Tick()
		c.setHL(c.getHL() - 1)
	case 0x3B:
		c.bus.Tick()
		c.SP--

	// ADD HL,rr
	case 0x09:
		c.bus.Tick()
		c.add16HL(c.getBC())
	case 0x19:
		c.bus.Tick()
		c.add16HL(c.getDE())
	case 0x29:
		c.bus.Tick()
		c.add16HL(c.getHL())
	case 0x39:
		c.bus.Tick()
		c.add16HL(c.SP)
	case 0xE8: // ADD SP,r8
		r8 := c.fetch8()
		c.bus.Tick()
		c.bus.Tick()
		c.SP = c.addSPSigned(c.SP, r8)

	// rotates on A (always clear Z)
	case 0x07: // RLCA
		c.A = c.rlc(c.A)
		c.F &^= FlagZ
	case 0x0F: // RRCA
		c.A = c.rrc(c.A)
		c.F &^= FlagZ
	case 0x17: // RLA
		c.A = c.rl(c.A)
		c.F &^= FlagZ
	case 0x1F: // RRA
		c.A = c.rr(c.A)
		c.F &^= FlagZ

	case 0x27:
		c.daa()
	case 0x2F: // CPL
		c.A = ^c.A
		c.F |= FlagN | FlagH
	case 0x37: // SCF
		c.setFlags(c.flag(FlagZ), false, false, true)
	case 0x3F: // CCF
		c.setFlags(c.flag(FlagZ), false, false, !c.flag(FlagC))

	// ALU A,d8
	case 0xC6:
		c.A = c.add8(c.A, c.fetch8())
	case 0xCE:
		c.A = c.adc8(c.A, c.fetch8())
	case 0xD6:
		c.A = c.sub8(c.A, c.fetch8())
	case 0xDE:
		c.A = c.sbc8(c.A, c.fetch8())
	case 0xE6:
		c.A = c.and8(c.A, c.fetch8())
	case 0xEE:
		c.A = c.xor8(c.A, c.fetch8())
	case 0xF6:
		c.A = c.or8(c.A, c.fetch8())
	case 0xFE:
		c.cp8(c.A, c.fetch8())

	// stack ops
	case 0xC5:
		c.bus.Tick()
		c.push16(c.getBC())
	case 0xD5:
		c.bus.Tick()
		c.push16(c.getDE())
	case 0xE5:
		c.bus.Tick()
		c.push16(c.getHL())
	case 0xF5:
		c.bus.Tick()
		c.push16(c.getAF())
	case 0xC1:
		c.setBC(c.pop16())
	case 0xD1:
		c.setDE(c.pop16())
	case 0xE1:
		c.setHL(c.pop16())
	case 0xF1:
		c.setAF(c.pop16())

	// jumps
	case 0xC3:
		c.PC = c.fetch16()
		c.bus.Tick()
	case 0xE9:
		c.PC = c.getHL()
	case 0x18: // JR r8
		r8 := c.fetch8()
		c.PC = uint16(int32(c.PC) + int32(int8(r8)))
		c.bus.Tick()
	case 0xC2, 0xD2, 0xCA, 0xDA: // JP cc,a16
		target := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.PC = target
			c.bus.Tick()
		}
	case 0x20, 0x30, 0x28, 0x38: // JR cc,r8
		r8 := c.fetch8()
		if c.cond((op >> 3) & 3) {
			c.PC = uint16(int32(c.PC) + int32(int8(r8)))
			c.bus.Tick()
		}
	case 0xCD: // CALL a16
		target := c.fetch16()
		c.bus.Tick()
		c.push16(c.PC)
		c.PC = target
	case 0xC4, 0xD4, 0xCC, 0xDC: // CALL cc,a16
		target := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.bus.Tick()
			c.push16(c.PC)
			c.PC = target
		}
	case 0xC9: // RET
		c.PC = c.pop16()
		c.bus.Tick()
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.bus.Tick()
		c.IME = true
		c.imeDelay = false
	case 0xC0, 0xD0, 0xC8, 0xD8: // RET cc
		c.bus.Tick()
		if c.cond((op >> 3) & 3) {
			c.PC = c.pop16()
			c.bus.Tick()
		}
	case 0xC7, 0xD7, 0xE7, 0xF7, 0xCF, 0xDF, 0xEF, 0xFF: // RST n
		c.bus.Tick()
		c.push16(c.PC)
		c.PC = uint16(op & 0x38)

	default:
		// Undefined opcodes (0xD3,0xDB,0xDD,0xE3,0xE4,0xEB,0xEC,0xED,0xF4,0xFC,0xFD)
		// lock the CPU on real hardware; we treat them as a one-cycle no-op so
		// a misdecoded stream does not crash the host.
	}
}

// aluOp applies the ALU operation selected by the 3-bit field in the
// 0x80-0xBF block (and shared by the 0xC6-0xFE immediate forms' encodings).
func (c *CPU) aluOp(sel byte, v byte) {
	switch sel {
	case 0:
		c.A = c.add8(c.A, v)
	case 1:
		c.A = c.adc8(c.A, v)
	case 2:
		c.A = c.sub8(c.A, v)
	case 3:
		c.A = c.sbc8(c.A, v)
	case 4:
		c.A = c.and8(c.A, v)
	case 5:
		c.A = c.xor8(c.A, v)
	case 6:
		c.A = c.or8(c.A, v)
	default:
		c.cp8(c.A, v)
	}
}
