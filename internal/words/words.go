// Package words spells out rupee amounts using the Indian numbering scale
// (crore, lakh, thousand, hundred).
package words

import "strings"

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
	hundred  = 100
)

var ones = [...]string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

// ToWords renders n in English words, e.g. 1234567 becomes
// "Twelve Lakh Thirty-Four Thousand Five Hundred Sixty-Seven".
func ToWords(n uint64) string {
	if n == 0 {
		return "Zero"
	}
	return capitalize(strings.Join(strings.Fields(convertCrores(n)), " "))
}

// Rupees is ToWords with the invoice currency suffix.
func Rupees(n uint64) string {
	return ToWords(n) + " rupees only"
}

func convertTens(n uint64) string {
	if n < 20 {
		return ones[n]
	}
	word := tens[n/10]
	if n%10 != 0 {
		word += "-" + ones[n%10]
	}
	return word
}

func convertHundreds(n uint64) string {
	if n >= hundred {
		return ones[n/hundred] + " hundred " + convertTens(n%hundred)
	}
	return convertTens(n)
}

func convertThousands(n uint64) string {
	if n >= thousand {
		return convertHundreds(n/thousand) + " thousand " + convertHundreds(n%thousand)
	}
	return convertHundreds(n)
}

func convertLakhs(n uint64) string {
	if n >= lakh {
		return convertHundreds(n/lakh) + " lakh " + convertThousands(n%lakh)
	}
	return convertThousands(n)
}

// convertCrores recurses on the crore count so amounts of 100 crore and
// above still render ("one hundred crore").
func convertCrores(n uint64) string {
	if n >= crore {
		return convertCrores(n/crore) + " crore " + convertLakhs(n%crore)
	}
	return convertLakhs(n)
}

func capitalize(s string) string {
	parts := strings.Split(s, " ")
	for i, part := range parts {
		pieces := strings.Split(part, "-")
		for j, piece := range pieces {
			if piece == "" {
				continue
			}
			pieces[j] = strings.ToUpper(piece[:1]) + piece[1:]
		}
		parts[i] = strings.Join(pieces, "-")
	}
	return strings.Join(parts, " ")
}
