package qr

import "fmt"

const crcPoly = 0x07

// CRC8 computes the CRC-8 (poly 0x07, init 0x00, MSB-first, no reflection, no final xor) of data.
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Checksum renders the CRC8 of s as 2 upper-case hex digits.
func Checksum(s string) string {
	return fmt.Sprintf("%02X", CRC8([]byte(s)))
}
