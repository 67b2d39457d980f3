package schema

// CompanyTypes maps company-type abbreviations to their full form.
var CompanyTypes = map[string]string{
	"CORP":        "CORPORATION",
	"CORPN":       "CORPORATION",
	"CO":          "COMPANY",
	"CMPY":        "COMPANY",
	"INC":         "INCORPORATED",
	"INCORP":      "INCORPORATED",
	"LLC":         "LIMITED LIABILITY COMPANY",
	"L L C":       "LIMITED LIABILITY COMPANY",
	"PLLC":        "PROFESSIONAL LIMITED LIABILITY COMPANY",
	"LTD":         "LIMITED",
	"LP":          "LIMITED PARTNERSHIP",
	"LLP":         "LIMITED LIABILITY PARTNERSHIP",
	"LLLP":        "LIMITED LIABILITY LIMITED PARTNERSHIP",
	"PTNR":        "PARTNERSHIP",
	"PTNRSHP":     "PARTNERSHIP",
	"PC":          "PROFESSIONAL CORPORATION",
	"PA":          "PROFESSIONAL ASSOCIATION",
	"SP":          "SOLE PROPRIETORSHIP",
	"SOLE PROP":   "SOLE PROPRIETORSHIP",
	"ASSOC":       "ASSOCIATION",
	"ASSN":        "ASSOCIATION",
	"ASSNS":       "ASSOCIATIONS",
	"INTL":        "INTERNATIONAL",
	"NATL":        "NATIONAL",
	"COMM":        "COMMITTEE",
	"CMTE":        "COMMITTEE",
	"CTEE":        "COMMITTEE",
	"PAC":         "POLITICAL ACTION COMMITTEE",
	"DEPT":        "DEPARTMENT",
	"GRP":         "GROUP",
	"SVCS":        "SERVICES",
	"SVC":         "SERVICE",
	"MGMT":        "MANAGEMENT",
	"BROS":        "BROTHERS",
	"MFG":         "MANUFACTURING",
	"HLDGS":       "HOLDINGS",
	"AMER":        "AMERICA",
	"FDN":         "FOUNDATION",
	"FNDN":        "FOUNDATION",
	"UNIV":        "UNIVERSITY",
	"GOVT":        "GOVERNMENT",
	"ENTERPRISES": "ENTERPRISES",
}

// Titles are honorifics dropped from personal names.
var Titles = map[string]bool{
	"MR": true, "MRS": true, "MS": true, "MISS": true, "MX": true, "DR": true,
	"DOCTOR": true, "PROF": true, "PROFESSOR": true, "HON": true, "HONORABLE": true,
	"REV": true, "REVEREND": true, "SIR": true, "MADAM": true, "SEN": true,
	"REP": true, "JUDGE": true, "GOV": true,
}

// Suffixes are generational name suffixes.
var Suffixes = map[string]bool{
	"JR": true, "SR": true, "I": true, "II": true, "III": true, "IV": true,
	"V": true, "VI": true, "ESQ": true,
}

// MinnesotaOffices is the closed set of office-sought tokens that may appear
// in a Minnesota committee name.
var MinnesotaOffices = []string{
	"Gov",
	"Lt Gov",
	"AG",
	"SOS",
	"State Auditor",
	"Sup Court",
	"Appeals Court",
	"Dist Court",
	"Senate",
	"House",
}

// Nicknames maps a nickname to the formal given names it may stand for.
var Nicknames = map[string][]string{
	"AL":      {"ALBERT", "ALAN", "ALLEN", "ALFRED"},
	"ALEX":    {"ALEXANDER", "ALEXANDRA"},
	"ANDY":    {"ANDREW"},
	"DREW":    {"ANDREW"},
	"BEN":     {"BENJAMIN"},
	"BETH":    {"ELIZABETH"},
	"LIZ":     {"ELIZABETH"},
	"BETSY":   {"ELIZABETH"},
	"BETTY":   {"ELIZABETH"},
	"BILL":    {"WILLIAM"},
	"BILLY":   {"WILLIAM"},
	"WILL":    {"WILLIAM"},
	"WILLY":   {"WILLIAM"},
	"BOB":     {"ROBERT"},
	"BOBBY":   {"ROBERT"},
	"ROB":     {"ROBERT"},
	"ROBBIE":  {"ROBERT"},
	"BERT":    {"ROBERT", "ALBERT", "HERBERT"},
	"CHARLIE": {"CHARLES"},
	"CHUCK":   {"CHARLES"},
	"CHRIS":   {"CHRISTOPHER", "CHRISTINE", "CHRISTINA"},
	"DAN":     {"DANIEL"},
	"DANNY":   {"DANIEL"},
	"DAVE":    {"DAVID"},
	"DICK":    {"RICHARD"},
	"RICK":    {"RICHARD"},
	"RICH":    {"RICHARD"},
	"RICKY":   {"RICHARD"},
	"DON":     {"DONALD"},
	"ED":      {"EDWARD", "EDWIN", "EDMUND"},
	"EDDIE":   {"EDWARD"},
	"TED":     {"EDWARD", "THEODORE"},
	"FRED":    {"FREDERICK", "ALFRED"},
	"GREG":    {"GREGORY"},
	"HANK":    {"HENRY"},
	"HARRY":   {"HENRY", "HAROLD"},
	"JACK":    {"JOHN"},
	"JOHNNY":  {"JOHN"},
	"JIM":     {"JAMES"},
	"JIMMY":   {"JAMES"},
	"JAMIE":   {"JAMES"},
	"JEFF":    {"JEFFREY"},
	"JEN":     {"JENNIFER"},
	"JENNY":   {"JENNIFER"},
	"JERRY":   {"GERALD", "JEROME"},
	"JOE":     {"JOSEPH"},
	"JOEY":    {"JOSEPH"},
	"KATE":    {"KATHERINE", "KATHRYN", "CATHERINE"},
	"KATIE":   {"KATHERINE", "KATHRYN", "CATHERINE"},
	"KATHY":   {"KATHERINE", "KATHLEEN", "CATHERINE"},
	"KEN":     {"KENNETH"},
	"KENNY":   {"KENNETH"},
	"LARRY":   {"LAWRENCE"},
	"MAGGIE":  {"MARGARET"},
	"PEGGY":   {"MARGARET"},
	"MEG":     {"MARGARET"},
	"MATT":    {"MATTHEW"},
	"MIKE":    {"MICHAEL"},
	"MICKEY":  {"MICHAEL"},
	"NICK":    {"NICHOLAS"},
	"PAT":     {"PATRICK", "PATRICIA"},
	"PATTY":   {"PATRICIA"},
	"TRISH":   {"PATRICIA"},
	"PETE":    {"PETER"},
	"RON":     {"RONALD"},
	"RONNIE":  {"RONALD"},
	"SAM":     {"SAMUEL", "SAMANTHA"},
	"STEVE":   {"STEVEN", "STEPHEN"},
	"SUE":     {"SUSAN", "SUZANNE"},
	"SUSIE":   {"SUSAN"},
	"TIM":     {"TIMOTHY"},
	"TOM":     {"THOMAS"},
	"TOMMY":   {"THOMAS"},
	"TONY":    {"ANTHONY"},
	"VICKY":   {"VICTORIA"},
	"ZACH":    {"ZACHARY"},
}

// StateNames maps USPS state codes to state names.
var StateNames = map[string]string{
	"AL": "ALABAMA", "AK": "ALASKA", "AZ": "ARIZONA", "AR": "ARKANSAS", "CA": "CALIFORNIA",
	"CO": "COLORADO", "CT": "CONNECTICUT", "DE": "DELAWARE", "DC": "DISTRICT OF COLUMBIA",
	"FL": "FLORIDA", "GA": "GEORGIA", "HI": "HAWAII", "ID": "IDAHO", "IL": "ILLINOIS",
	"IN": "INDIANA", "IA": "IOWA", "KS": "KANSAS", "KY": "KENTUCKY", "LA": "LOUISIANA",
	"ME": "MAINE", "MD": "MARYLAND", "MA": "MASSACHUSETTS", "MI": "MICHIGAN", "MN": "MINNESOTA",
	"MS": "MISSISSIPPI", "MO": "MISSOURI", "MT": "MONTANA", "NE": "NEBRASKA", "NV": "NEVADA",
	"NH": "NEW HAMPSHIRE", "NJ": "NEW JERSEY", "NM": "NEW MEXICO", "NY": "NEW YORK",
	"NC": "NORTH CAROLINA", "ND": "NORTH DAKOTA", "OH": "OHIO", "OK": "OKLAHOMA", "OR": "OREGON",
	"PA": "PENNSYLVANIA", "RI": "RHODE ISLAND", "SC": "SOUTH CAROLINA", "SD": "SOUTH DAKOTA",
	"TN": "TENNESSEE", "TX": "TEXAS", "UT": "UTAH", "VT": "VERMONT", "VA": "VIRGINIA",
	"WA": "WASHINGTON", "WV": "WEST VIRGINIA", "WI": "WISCONSIN", "WY": "WYOMING",
	"PR": "PUERTO RICO", "GU": "GUAM", "VI": "VIRGIN ISLANDS",
}

// Parties maps canonical party names to the spellings seen in source files.
var Parties = map[string][]string{
	"DEMOCRATIC":       {"D", "DEM", "DEMOCRAT", "DEMOCRATIC", "DEMOCRATIC PARTY", "DFL", "DEMOCRATIC-FARMER-LABOR", "DEMOCRATIC FARMER LABOR"},
	"REPUBLICAN":       {"R", "REP", "GOP", "REPUBLICAN", "REPUBLICAN PARTY"},
	"LIBERTARIAN":      {"L", "LIB", "LBT", "LIBERTARIAN"},
	"GREEN":            {"G", "GRN", "GREEN", "GREEN PARTY"},
	"INDEPENDENT":      {"I", "IND", "INDEPENDENT", "NPA", "NO PARTY AFFILIATION"},
	"NONPARTISAN":      {"NP", "NON", "NONPARTISAN", "NON-PARTISAN"},
	"WORKING FAMILIES": {"WF", "WFP", "WORKING FAMILIES"},
}
