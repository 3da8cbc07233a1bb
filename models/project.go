package models

import (
	"time"

	"cfss-backend/windload"
)

const (
	DomainSeismic = "seismic"
	DomainCFSS    = "cfss"
)

// Project is the persisted project document. Only the fields the backend
// reads are typed; the editor owns the rest of the document.
type Project struct {
	ID                     string        `json:"id" dynamodbav:"id"`
	Domain                 string        `json:"domain" dynamodbav:"domain"`
	Name                   string        `json:"name" dynamodbav:"name" binding:"required"`
	ProjectNumber          string        `json:"projectNumber" dynamodbav:"projectNumber"`
	ClientName             string        `json:"clientName" dynamodbav:"clientName"`
	AddressLine            string        `json:"addressLine,omitempty" dynamodbav:"addressLine,omitempty"`
	City                   string        `json:"city,omitempty" dynamodbav:"city,omitempty"`
	Province               string        `json:"province,omitempty" dynamodbav:"province,omitempty"`
	PostalCode             string        `json:"postalCode,omitempty" dynamodbav:"postalCode,omitempty"`
	ContractNumber         string        `json:"contractNumber,omitempty" dynamodbav:"contractNumber,omitempty"`
	DesignedBy             string        `json:"designedBy,omitempty" dynamodbav:"designedBy,omitempty"`
	ApprovedBy             string        `json:"approvedBy,omitempty" dynamodbav:"approvedBy,omitempty"`
	CreatedBy              string        `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	CreatedAt              time.Time     `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt              time.Time     `json:"updatedAt" dynamodbav:"updatedAt"`
	SelectedRevisionNumber int           `json:"selectedRevisionNumber,omitempty" dynamodbav:"selectedRevisionNumber,omitempty"`
	SignDocument           bool          `json:"signDocument,omitempty" dynamodbav:"signDocument,omitempty"`
	CFSSWindData           *CFSSWindData `json:"cfssWindData,omitempty" dynamodbav:"cfssWindData,omitempty"`
	WindDataVersion        int64         `json:"windDataVersion" dynamodbav:"windDataVersion"`
	Equipment              []Equipment   `json:"equipment,omitempty" dynamodbav:"equipment,omitempty"`
	Walls                  []Wall        `json:"walls,omitempty" dynamodbav:"walls,omitempty"`
	Windows                []Window      `json:"windows,omitempty" dynamodbav:"windows,omitempty"`
	Parapets               []Parapet     `json:"parapets,omitempty" dynamodbav:"parapets,omitempty"`
	WallRevisions          []Revision    `json:"wallRevisions,omitempty" dynamodbav:"wallRevisions,omitempty"`
}

// Address joins the address parts for the cover page.
func (p Project) Address() string {
	out := p.AddressLine
	for _, part := range []string{p.City, p.Province, p.PostalCode} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

// CFSSWindData is replaced as a whole on every write.
type CFSSWindData struct {
	Storeys        []windload.Storey     `json:"storeys" dynamodbav:"storeys"`
	FloorGroups    []windload.FloorGroup `json:"floorGroups" dynamodbav:"floorGroups"`
	Specifications map[string]string     `json:"specifications,omitempty" dynamodbav:"specifications,omitempty"`
}

// Composition is one framing member (jambage, linteau or seuil) of a window
// opening. Compositions are printed one per line.
type Composition struct {
	Type         string   `json:"type" dynamodbav:"type"`
	Compositions []string `json:"compositions,omitempty" dynamodbav:"compositions,omitempty"`
}

// Window is one window type of a CFSS project.
type Window struct {
	ID         int         `json:"id" dynamodbav:"id"`
	Type       string      `json:"type" dynamodbav:"type"`
	Floor      string      `json:"floor" dynamodbav:"floor"`
	LargeurMax string      `json:"largeurMax" dynamodbav:"largeurMax"`
	HauteurMax string      `json:"hauteurMax" dynamodbav:"hauteurMax"`
	Jambage    Composition `json:"jambage" dynamodbav:"jambage"`
	Linteau    Composition `json:"linteau" dynamodbav:"linteau"`
	Seuil      Composition `json:"seuil" dynamodbav:"seuil"`
	L1         string      `json:"l1,omitempty" dynamodbav:"l1,omitempty"`
	L2         string      `json:"l2,omitempty" dynamodbav:"l2,omitempty"`
}

// Wall is one CFSS wall assembly.
type Wall struct {
	ID          int    `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Floor       string `json:"floor" dynamodbav:"floor"`
	StudType    string `json:"studType,omitempty" dynamodbav:"studType,omitempty"`
	StudSpacing string `json:"studSpacing,omitempty" dynamodbav:"studSpacing,omitempty"`
	MaxHeight   string `json:"maxHeight,omitempty" dynamodbav:"maxHeight,omitempty"`
	Deflection  string `json:"deflection,omitempty" dynamodbav:"deflection,omitempty"`
	Note        string `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

// Parapet is a roof parapet assembly.
type Parapet struct {
	ID       int    `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	Height   string `json:"height,omitempty" dynamodbav:"height,omitempty"`
	StudType string `json:"studType,omitempty" dynamodbav:"studType,omitempty"`
}

// Equipment is one anchored item of a seismic project.
type Equipment struct {
	ID        int               `json:"id" dynamodbav:"id"`
	Name      string            `json:"name" dynamodbav:"name"`
	Floor     string            `json:"floor,omitempty" dynamodbav:"floor,omitempty"`
	Weight    string            `json:"weight,omitempty" dynamodbav:"weight,omitempty"`
	Anchorage string            `json:"anchorage,omitempty" dynamodbav:"anchorage,omitempty"`
	Fields    map[string]string `json:"fields,omitempty" dynamodbav:"fields,omitempty"`
}

// Revision snapshots the wall configuration of a project.
type Revision struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Number      int       `json:"number" dynamodbav:"number"`
	Description string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	CreatedBy   string    `json:"createdBy" dynamodbav:"createdBy"`
	Walls       []Wall    `json:"walls,omitempty" dynamodbav:"walls,omitempty"`
}

// UserInfo is the caller identity as seen by the backend.
type UserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}
