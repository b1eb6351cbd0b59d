package rules

import "strings"

// drugClassMap groups cross-reactive medications by pharmacologic class.
// An allergy to any member (or to the class name itself) flags every
// other member.
var drugClassMap = map[string][]string{
	"penicillin": {
		"penicillin", "penicillin v", "penicillin g",
		"amoxicillin", "ampicillin", "piperacillin",
		"nafcillin", "oxacillin", "dicloxacillin",
		"amoxicillin/clavulanate", "augmentin",
	},
	"cephalosporin": {
		"cephalexin", "cefazolin", "ceftriaxone", "cefdinir",
		"cefuroxime", "ceftazidime", "cefepime",
	},
	"sulfonamide": {
		"sulfamethoxazole", "sulfasalazine", "trimethoprim/sulfamethoxazole",
		"bactrim", "septra", "sulfa",
	},
	"statin": {
		"atorvastatin", "simvastatin", "rosuvastatin",
		"lovastatin", "pravastatin", "fluvastatin", "pitavastatin",
	},
	"ace_inhibitor": {
		"lisinopril", "enalapril", "ramipril", "captopril",
		"benazepril", "fosinopril", "quinapril", "perindopril",
	},
	"arb": {
		"losartan", "valsartan", "irbesartan", "candesartan",
		"telmisartan", "olmesartan",
	},
	"nsaid": {
		"ibuprofen", "naproxen", "aspirin", "diclofenac",
		"celecoxib", "meloxicam", "indomethacin", "ketorolac",
	},
	"ssri": {
		"sertraline", "fluoxetine", "paroxetine",
		"citalopram", "escitalopram", "fluvoxamine",
	},
	"maoi": {
		"phenelzine", "tranylcypromine", "isocarboxazid", "selegiline",
	},
	"benzodiazepine": {
		"diazepam", "lorazepam", "alprazolam", "clonazepam",
		"midazolam", "temazepam",
	},
	"opioid": {
		"morphine", "oxycodone", "hydrocodone", "fentanyl",
		"tramadol", "codeine", "methadone", "buprenorphine",
	},
	"fluoroquinolone": {
		"ciprofloxacin", "levofloxacin", "moxifloxacin", "ofloxacin",
	},
	"macrolide": {
		"azithromycin", "erythromycin", "clarithromycin",
	},
	"thiazide": {
		"hydrochlorothiazide", "chlorthalidone", "indapamide",
	},
	"beta_blocker": {
		"metoprolol", "atenolol", "propranolol", "carvedilol",
		"bisoprolol", "nebivolol",
	},
}

// drugToClasses is the reverse index (drug name -> set of class names),
// built once at init so lookups never rescan the class table.
var drugToClasses = buildClassIndex()

// classMembers is a membership set per class for O(1) "allergy is a
// class name" checks.
var classMembers = buildMemberSets()

func buildClassIndex() map[string]map[string]bool {
	idx := make(map[string]map[string]bool)
	for class, members := range drugClassMap {
		for _, drug := range members {
			key := strings.ToLower(drug)
			if idx[key] == nil {
				idx[key] = make(map[string]bool)
			}
			idx[key][class] = true
		}
	}
	return idx
}

func buildMemberSets() map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(drugClassMap))
	for class, members := range drugClassMap {
		set := make(map[string]bool, len(members))
		for _, drug := range members {
			set[strings.ToLower(drug)] = true
		}
		sets[class] = set
	}
	return sets
}

func normalizeDrugName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// classesOf returns the set of class names the drug belongs to, or nil.
func classesOf(drugName string) map[string]bool {
	return drugToClasses[normalizeDrugName(drugName)]
}

// sharedClass returns the first class (lexicographically, for stable
// output) shared by both drugs, or false when there is no overlap.
func sharedClass(a, b string) (string, bool) {
	aClasses := classesOf(a)
	if len(aClasses) == 0 {
		return "", false
	}
	best := ""
	for class := range classesOf(b) {
		if aClasses[class] && (best == "" || class < best) {
			best = class
		}
	}
	return best, best != ""
}
