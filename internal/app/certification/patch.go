package certification

import "restoree/internal/domain/certificate"

type CustomerPatch struct {
	Name    *string `json:"name,omitempty"`
	Mobile  *string `json:"mobile,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type ArticlePatch struct {
	NameSelect *string `json:"name_select,omitempty"`
	NameCustom *string `json:"name_custom,omitempty"`
	Brand      *string `json:"brand,omitempty"`
	Model      *string `json:"model,omitempty"`
	Serial     *string `json:"serial,omitempty"`
	Service    *string `json:"service,omitempty"`
	Technician *string `json:"technician,omitempty"`
}

type DatesPatch struct {
	Picked    *string `json:"picked,omitempty"`
	Completed *string `json:"completed,omitempty"`
	Delivered *string `json:"delivered,omitempty"`
	Warranty  *string `json:"warranty,omitempty"`
	NextCare  *string `json:"next_care,omitempty"`
}

type ConditionPatch struct {
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
}

type DisplayPatch struct {
	Plain    *bool `json:"plain,omitempty"`
	PrintFit *bool `json:"print_fit,omitempty"`
}

// DraftPatch is a partial edit of the free-form draft fields. Nil fields are
// left alone. Metrics, tags, photos, logo and certificate ID have dedicated
// operations.
type DraftPatch struct {
	Customer           *CustomerPatch  `json:"customer,omitempty"`
	Article            *ArticlePatch   `json:"article,omitempty"`
	Dates              *DatesPatch     `json:"dates,omitempty"`
	Condition          *ConditionPatch `json:"condition,omitempty"`
	Display            *DisplayPatch   `json:"display,omitempty"`
	ImprovementPercent *string         `json:"improvement_percent,omitempty"`
	Handle             *string         `json:"handle,omitempty"`
	VerifyURL          *string         `json:"verify_url,omitempty"`
	RefCode            *string         `json:"ref_code,omitempty"`
	LogoURL            *string         `json:"logo_url,omitempty"`
	LogoBase64         *string         `json:"logo_base64,omitempty"`
	Disclaimer         *string         `json:"disclaimer,omitempty"`
}

// Apply copies the set fields into d and reports whether anything changed.
func (p DraftPatch) Apply(d *certificate.Draft) bool {
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}

	if c := p.Customer; c != nil {
		set(&d.Customer.Name, c.Name)
		set(&d.Customer.Mobile, c.Mobile)
		set(&d.Customer.Email, c.Email)
		set(&d.Customer.Address, c.Address)
	}
	if a := p.Article; a != nil {
		set(&d.Article.NameSelect, a.NameSelect)
		set(&d.Article.NameCustom, a.NameCustom)
		set(&d.Article.Brand, a.Brand)
		set(&d.Article.Model, a.Model)
		set(&d.Article.Serial, a.Serial)
		set(&d.Article.Service, a.Service)
		set(&d.Article.Technician, a.Technician)
	}
	if dt := p.Dates; dt != nil {
		set(&d.Dates.Picked, dt.Picked)
		set(&d.Dates.Completed, dt.Completed)
		set(&d.Dates.Delivered, dt.Delivered)
		set(&d.Dates.Warranty, dt.Warranty)
		set(&d.Dates.NextCare, dt.NextCare)
	}
	if c := p.Condition; c != nil {
		set(&d.Condition.Before, c.Before)
		set(&d.Condition.After, c.After)
	}
	if m := p.Display; m != nil {
		setBool(&d.Display.Plain, m.Plain)
		setBool(&d.Display.PrintFit, m.PrintFit)
	}
	if p.ImprovementPercent != nil && d.ImprovementPercent != *p.ImprovementPercent {
		d.SetImprovementPercent(*p.ImprovementPercent)
		changed = true
	}
	set(&d.Handle, p.Handle)
	set(&d.VerifyURL, p.VerifyURL)
	set(&d.RefCode, p.RefCode)
	set(&d.LogoURL, p.LogoURL)
	set(&d.LogoBase64, p.LogoBase64)
	set(&d.Disclaimer, p.Disclaimer)
	return changed
}
