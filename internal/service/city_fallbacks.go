package service

import "strings"

// NeighborhoodTable maps a city to well-known neighbourhoods and markets.
type NeighborhoodTable map[string][]string

// Lookup matches city case-insensitively.
func (t NeighborhoodTable) Lookup(city string) []string {
	city = strings.TrimSpace(city)
	if names, ok := t[city]; ok {
		return names
	}
	for k, names := range t {
		if strings.EqualFold(k, city) {
			return names
		}
	}
	return nil
}

// CityNeighborhoods supplements OSM place data for cities where it is sparse.
var CityNeighborhoods = NeighborhoodTable{
	"Owerri": {
		"Ikenegbu", "Wetheral Road", "Aladinma", "New Owerri", "World Bank",
		"Douglas Road", "Orji", "Amakohia", "Egbu", "Irete", "Nekede", "Relief Market",
	},
	"Lagos": {
		"Ikeja", "Lekki", "Victoria Island", "Surulere", "Yaba", "Ajah", "Ikoyi",
		"Festac", "Gbagada", "Balogun Market", "Computer Village", "Trade Fair",
	},
	"Abuja": {
		"Wuse", "Garki", "Maitama", "Asokoro", "Gwarinpa", "Kubwa", "Jabi",
		"Utako", "Lugbe", "Wuse Market",
	},
	"Port Harcourt": {
		"GRA", "Rumuokoro", "Trans Amadi", "D-Line", "Rumuola", "Choba",
		"Mile 1 Market", "Borokiri", "Rumuokwuta",
	},
	"Enugu": {
		"Independence Layout", "New Haven", "Trans Ekulu", "Ogbete Market",
		"Abakpa", "GRA", "Uwani",
	},
	"Ibadan": {
		"Bodija", "Dugbe", "Ring Road", "Challenge", "Mokola", "Agodi", "Oje Market",
	},
	"Kano": {
		"Sabon Gari", "Nassarawa", "Fagge", "Kantin Kwari Market", "Bompai",
	},
	"Benin City": {
		"GRA", "Ugbowo", "Uselu", "Ring Road", "Sapele Road", "Oba Market",
	},
	"Aba": {
		"Ariaria Market", "Ogbor Hill", "Umungasi", "Asa Road", "Faulks Road",
	},
	"Onitsha": {
		"Main Market", "Fegge", "GRA", "Awada", "Ose Market",
	},
}
