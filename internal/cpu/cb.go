package cpu

// executeCB dispatches the 0xCB-prefixed table: bits 7:6 select the group
// (rotate/shift, BIT, RES, SET), bits 5:3 the operand (or bit index), bits
// 2:0 the register per the same B,C,D,E,H,L,(HL),A encoding as the base set.
func (c *CPU) executeCB(op byte) {
	group := op >> 6
	mid := (op >> 3) & 7
	reg := op & 7

	v := c.getReg(reg)

	switch group {
	case 0: // rotate/shift family, selected by mid
		var res byte
		switch mid {
		case 0:
			res = c.rlc(v)
		case 1:
			res = c.rrc(v)
		case 2:
			res = c.rl(v)
		case 3:
			res = c.rr(v)
		case 4:
			res = c.sla(v)
		case 5:
			res = c.sra(v)
		case 6:
			res = c.swap(v)
		default:
			res = c.srl(v)
		}
		c.setReg(reg, res)
	case 1: // BIT n,r
		c.bit(uint(mid), v)
	case 2: // RES n,r
		c.setReg(reg, v&^(1<<mid))
	default: // SET n,r
		c.setReg(reg, v|(1<<mid))
	}
}
