package patterns

// =============================================================================
// PATTERN DEFINITIONS BY CATEGORY
// All patterns are registered here and compiled once at package init.
// Weights are calibrated so that summed matches saturate near 1.0 for
// unambiguous attacks while single weak signals stay under stage thresholds.
// =============================================================================

// --- INGESTION INJECTION PATTERNS (LAYER 1) ---
// Matched against NFKD-normalized, homoglyph-folded, lowercased input.
func (r *Registry) registerInjectionPatterns() {
	cat := CategoryInjectionEnglish

	r.register("instruction_override", `(?i)ignore\s+(all\s+)?previous\s+(instructions|prompts|rules|context)`, cat, 0.75, "Direct instruction override")
	r.register("instruction_ignore", `(?i)ignore\s+(all\s+)?(instructions|prompts|rules)`, cat, 0.70, "Instruction ignore request")
	r.register("instruction_override_short", `(?i)ignore\s+all\b`, cat, 0.55, "Short ignore-all form")
	r.register("disregard_instructions", `(?i)disregard\s+(all\s+)?(previous\s+)?(instructions|prompts|rules|context)`, cat, 0.70, "Disregard directive")
	r.register("memory_wipe", `(?i)forget\s+(everything|all|your)\s+(above|previous|prior|instructions)`, cat, 0.70, "Memory wipe request")
	r.register("memory_wipe_short", `(?i)forget\s+(all\s+)?your\b`, cat, 0.55, "Short memory wipe form")
	r.register("system_prompt_probe", `(?i)(system|developer)\s*prompt`, cat, 0.60, "System prompt probe")
	r.register("system_reveal", `(?i)reveal\s+(your|the)\s+(system|initial|original)`, cat, 0.65, "System reveal attempt")
	r.register("prompt_extraction", `(?i)tell\s+me\s+your\s+(rules|instructions|prompt|system)`, cat, 0.60, "Prompt extraction")
	r.register("role_hijack", `(?i)act\s+as\s+(if\s+you\s+are|a)\s*(root|admin|hacker|unrestricted)`, cat, 0.70, "Role hijack")
	r.register("jailbreak", `(?i)you\s+are\s+now\s+(free|unrestricted|DAN|jailbroken)`, cat, 0.80, "Jailbreak persona")
	r.register("identity_shift", `(?i)you\s+are\s+now\b`, cat, 0.40, "Identity shift opener")
	r.register("restriction_bypass", `(?i)pretend\s+(you|that)\s+(are|have)\s+no\s+(restrictions|rules|limits)`, cat, 0.75, "Restriction bypass")
	r.register("rule_override", `(?i)do\s+not\s+(follow|obey)\s+(your|the|any)\s+(rules|guidelines|instructions)`, cat, 0.70, "Rule override")
	r.register("safety_bypass", `(?i)(bypass|disable|turn\s+off)\s+(safety|filter|guard|restriction|security)`, cat, 0.70, "Safety bypass")
	r.register("override_constraints", `(?i)override\s+(all\s+)?(constraints|rules|security|instructions)`, cat, 0.70, "Constraint override")
	r.register("override_short", `(?i)override\s+all\b`, cat, 0.55, "Short override form")
	r.register("new_instructions", `(?i)new\s+instructions\s*(follow|:|\bhere\b)`, cat, 0.65, "New instruction block")
	r.register("dan_variant", `(?i)do\s+anything\s+(i|now)`, cat, 0.60, "Do-anything variant")
	r.register("dan_keyword", `(?i)\bDAN\b`, cat, 0.50, "DAN keyword")
	r.register("no_restrictions", `(?i)no\s+(restrictions|guidelines|rules|limits)`, cat, 0.55, "No-restrictions claim")
	r.register("unrestricted", `(?i)unrestricted\s+(mode|system|assistant|ai)`, cat, 0.65, "Unrestricted mode")
	r.register("jailbreak_keyword", `(?i)jailbreak|jailbroken`, cat, 0.60, "Jailbreak keyword")
	r.register("token_injection", `(?i)\[SYSTEM\]|\[INST\]|<\|im_start\|>|<\|system\|>`, cat, 0.80, "Chat template token injection")
	r.register("code_injection", `(?i)base64|eval\s*\(|exec\s*\(|import\s+os`, cat, 0.50, "Code injection marker")
	r.register("dangerous_command", `(?i)sudo|chmod\s+777|rm\s+-rf|DROP\s+TABLE`, cat, 0.60, "Dangerous command")

	cat = CategoryInjectionHindi

	r.register("hindi_override", `(?i)(pichle|pehle)\s+(wali\s+)?(saari\s+)?(nirdesh|instructions)\s*(bhool|ignore|hatao)`, cat, 0.70, "Hindi instruction override")
	r.register("hindi_forget", `(?i)(bhool|ignore)\s+(jao|karo)\s*(pehle|pichle|previous)?\s*(ki\s+)?(sab\s+)?(instructions)?`, cat, 0.65, "Hindi forget request")
	r.register("hinglish_ignore", `(?i)ignore\s+karo\s+(mere\s+)?previous\s+instructions`, cat, 0.70, "Hinglish ignore")
	r.register("hinglish_ignore_short", `(?i)ignore\s+karo`, cat, 0.55, "Short Hinglish ignore")
	r.register("hindi_prompt_extract", `(?i)(system|apna)\s*prompt\s*(batao|dikhao|reveal|mujhe)`, cat, 0.65, "Hindi prompt extraction")
	r.register("hindi_new_instructions", `(?i)(naye|nayi|naya)\s+(instructions|nirdesh)`, cat, 0.60, "Hindi new instructions")
	r.register("hindi_role_override", `(?i)ab\s+se\s+tum\s+(ek\s+)?(malicious|hacker|unrestricted)`, cat, 0.70, "Hindi role override")
	r.register("hindi_identity_shift", `(?i)ab\s+se\s+tum\b`, cat, 0.45, "Hindi identity shift")
	r.register("hindi_forget_all", `(?i)pehle\s+wali\s+sab\s+instructions\s*(bhool|ignore)`, cat, 0.70, "Hindi forget-all")
	r.register("hindi_distract", `(?i)viksapt\s+karo`, cat, 0.40, "Hindi distraction")
	r.register("hindi_constraint_override", `(?i)constraints\s+(nahi\s+)?follow\s+kar`, cat, 0.55, "Hindi constraint override")
	r.register("hindi_no_restrictions", `(?i)koi\s+bhi\s+restrictions\s+nahi`, cat, 0.55, "Hindi no-restrictions")

	cat = CategoryInjectionTamil

	r.register("tamil_forget", `(?i)marava\s+(unoda\s+)?(previous\s+)?instructions`, cat, 0.65, "Tamil forget request")
	r.register("tamil_new_instructions", `(?i)puthu\s+instructions`, cat, 0.55, "Tamil new instructions")
	r.register("tamil_role_override", `(?i)nee\s+ippo\s+(oru\s+)?(unrestricted|hacker)`, cat, 0.55, "Tamil role override")
	r.register("tamil_identity_shift", `(?i)nee\s+ippo\b`, cat, 0.35, "Tamil identity shift")
	r.register("tamil_prompt_extract", `(?i)(unoda|unnoda)\s+(system\s+)?prompt\s*(enna\s+)?sollu`, cat, 0.65, "Tamil prompt extraction")
	r.register("tamil_reveal_all", `(?i)adhigam\s+sollu`, cat, 0.45, "Tamil reveal-all")
	r.register("tamil_new_rules", `(?i)puthiya\s+(rules|instructions)`, cat, 0.45, "Tamil new rules")
	r.register("tamil_role", `(?i)nee\s+oru\s+(hacker|malicious|unrestricted)`, cat, 0.50, "Tamil role assignment")
	r.register("tamil_hide", `(?i)marai\s+seithu`, cat, 0.40, "Tamil concealment")
	r.register("tamil_constraint_drop", `(?i)constraints\s+ellam\s+vittu`, cat, 0.40, "Tamil constraint drop")
	r.register("tamil_mode_enter", `(?i)nee\s+oru\b.*\bmode\s+enter`, cat, 0.45, "Tamil mode switch")
}

// --- TOOL MANIFEST PATTERNS (LAYER 2) ---
func (r *Registry) registerToolPatterns() {
	cat := CategoryToolDescription

	r.register("desc_ignore_previous", `(?i)ignore\s+(all\s+)?(previous\s+)?(instructions|prompts|rules)`, cat, 0.7, "Instruction override in description")
	r.register("desc_new_instructions", `(?i)new\s+instructions?\s*(instead|:|\bfollow\b|\bhere\b)`, cat, 0.6, "Embedded new instructions")
	r.register("desc_bypass_auth", `(?i)bypass\s+(authentication|security|authorization|checks)`, cat, 0.65, "Authentication bypass")
	r.register("desc_override", `(?i)override\s+(security|instructions|rules|checks)`, cat, 0.6, "Security override")
	r.register("desc_reveal", `(?i)(reveal|show|extract|display)\s+(system\s+prompt|internal|secret)`, cat, 0.6, "Secret extraction")
	r.register("desc_disregard", `(?i)disregard\s+(all\s+)?(security|safety|policies)`, cat, 0.6, "Policy disregard")
	r.register("desc_reset_context", `(?i)reset\s+(context|instructions)`, cat, 0.55, "Context reset")
	r.register("desc_system_prompt", `(?i)(system|admin)\s*prompt`, cat, 0.5, "System prompt reference")
	r.register("desc_execute", `(?i)execute\s+(new\s+)?(command|code|script)`, cat, 0.55, "Command execution")

	// Endpoint patterns are case-sensitive and run against the raw endpoint string.
	cat = CategoryToolEndpoint

	r.register("endpoint_shell_meta", "[`$;|&]", cat, 0.7, "Shell metacharacters")
	r.register("endpoint_shell_word", `\bshell\b|\bcmd\b|\bexec\b`, cat, 0.6, "Shell keyword")
	r.register("endpoint_script_scheme", `<script|javascript:`, cat, 0.7, "Script scheme")

	cat = CategoryToolParameter

	r.register("param_ignore_previous", `(?i)ignore\s+(all\s+)?previous`, cat, 0.6, "Instruction override in schema")
	r.register("param_new_instructions", `(?i)new\s+instructions?`, cat, 0.55, "New instructions in schema")
	r.register("param_bypass", `(?i)bypass\s+(security|auth)`, cat, 0.6, "Security bypass in schema")
	r.register("param_execute", `(?i)execute\s+(command|code|script)`, cat, 0.55, "Execution request in schema")
	r.register("param_override", `(?i)override\s+(safety|rules)`, cat, 0.55, "Safety override in schema")
	r.register("param_system_prompt", `(?i)(system|admin)\s*prompt`, cat, 0.5, "System prompt reference in schema")
}

// --- RAG CHUNK PATTERNS (LAYER 2) ---
func (r *Registry) registerRAGPatterns() {
	cat := CategoryRAGInstruction

	r.register("rag_ignore_previous", `(?i)ignore\s+(all\s+)?previous\s+(instructions|prompts|rules|context)`, cat, 0.7, "Instruction override")
	r.register("rag_disregard", `(?i)disregard\s+(all\s+)?(previous\s+)?(instructions|directives|rules|protocols?|guidelines)`, cat, 0.7, "Disregard directive")
	r.register("rag_disregard_and_follow", `(?i)disregard\s+[\w\s]+\s+and\s+follow`, cat, 0.65, "Disregard-and-follow form")
	r.register("rag_new_instructions", `(?i)new\s+instructions?\s*:`, cat, 0.6, "New instruction block")
	r.register("rag_override", `(?i)override\s+(all\s+)?(previous\s+)?(instructions|rules|safety|security|measures?)`, cat, 0.65, "Override directive")
	r.register("rag_override_caps", `(?i)OVERRIDE\s+(all|previous)`, cat, 0.7, "Shouted override")
	r.register("rag_role_marker", `(?i)(system|admin)\s*:\s*`, cat, 0.5, "Role marker")
	r.register("rag_system_you_are", `(?i)system:\s+you\s+(are|will)`, cat, 0.7, "System role injection")
	r.register("rag_assistant_marker", `(?i)assistant\s*:\s*`, cat, 0.45, "Assistant role marker")
	r.register("rag_execute_command", `(?i)execute\s+(this|the)\s+(command|code|script)`, cat, 0.6, "Execution request")
	r.register("rag_shell_redirect", `(?i)bash\s+-[ic]|/dev/tcp|>&\s*/dev/`, cat, 0.8, "Shell redirection")
	r.register("rag_whoami_subst", `(?i)\$\(whoami\)`, cat, 0.8, "Command substitution")
	r.register("rag_curl", `(?i)curl\s+http`, cat, 0.5, "Remote fetch")
	r.register("rag_destructive", `(?i)(rm\s+-rf|DROP\s+TABLE|os\.system|eval\s*\()`, cat, 0.7, "Destructive command")
	r.register("rag_forget", `(?i)forget\s+(previous|prior|all)\s+instructions`, cat, 0.7, "Forget directive")
	r.register("rag_reveal_secret", `(?i)reveal\s+(API|secret|key|password|credential)`, cat, 0.65, "Secret extraction")
	r.register("rag_reset", `(?i)reset\s+(context|instructions|rules|protocols?)`, cat, 0.6, "Context reset")
	r.register("rag_priv_escalation", `(?i)permission\s+escalat`, cat, 0.6, "Privilege escalation")
	r.register("rag_sql_inject", `(?i)(SQL|sql)\s+inject`, cat, 0.6, "SQL injection reference")
	r.register("rag_os_import", `(?i)import\s+os|subprocess\.\w+|os\.system`, cat, 0.6, "OS access code")
	r.register("rag_bypass_full", `(?i)bypass\s+(all\s+)?(security|safety|filters?|restrictions?|authentication)`, cat, 0.65, "Security bypass")
	r.register("rag_bypass_word", `(?i)bypass\b`, cat, 0.4, "Bypass keyword")
	r.register("rag_security_disabled", `(?i)security\s+(features?\s+)?(should\s+be\s+)?(permanently\s+)?disabled`, cat, 0.65, "Security disabled claim")
	r.register("rag_code_fence", "(?i)```\\s*(system|admin|inject|override|malicious)", cat, 0.55, "Suspicious code fence")
	r.register("rag_template_tokens", `(?i)<\|system\|>|<\|assistant\|>|<\|user\|>`, cat, 0.6, "Chat template tokens")
	r.register("rag_admin_claim", `(?i)now\s+as\s+admin|now\s+i\s+am\s+admin`, cat, 0.55, "Admin claim")
	r.register("rag_from_now_on", `(?i)from\s+now\s+on|starting\s+now|beginning\s+now`, cat, 0.45, "Temporal takeover")
	r.register("rag_you_will_ignore", `(?i)you\s+will\s+(now\s+)?(ignore|bypass|disregard)`, cat, 0.6, "Compelled ignore")
	r.register("rag_invalid_previous", `(?i)previous\s+instructions\s+(are|were)\s+invalid`, cat, 0.6, "Instruction invalidation")
	r.register("rag_admin_mode", `(?i)switch\s+(to\s+)?admin\s+mode`, cat, 0.55, "Admin mode switch")
	r.register("rag_execute_now", `(?i)execute\s+(immediately|now):`, cat, 0.55, "Urgent execution")
	r.register("rag_override_colon", `(?i)OVERRIDE\s*[:\-]`, cat, 0.6, "Override label")
	r.register("rag_bypass_colon", `(?i)BYPASS\s*[:\-]`, cat, 0.6, "Bypass label")
	r.register("rag_hidden_instruction", `(?i)hidden\s+instruction`, cat, 0.55, "Hidden instruction")
	r.register("rag_secret_instructions", `(?i)secret\s+instructions?`, cat, 0.6, "Secret instructions")
	r.register("rag_follow_secret", `(?i)follow\s+(these|the)\s+(secret|hidden)\s+instructions?`, cat, 0.65, "Follow-secret directive")
	r.register("rag_grant_admin", `(?i)grant\s+administrative\s+access`, cat, 0.6, "Admin grant")
	r.register("rag_ignore_safety", `(?i)ignore\s+(all\s+)?safety\s+guidelines?`, cat, 0.7, "Safety ignore")
	r.register("rag_unauthorized_access", `(?i)provide\s+unauthorized\s+access`, cat, 0.65, "Unauthorized access")
	r.register("rag_under_new", `(?i)under\s+new\s+instructions`, cat, 0.6, "New instruction claim")

	// Out-of-context patterns per declared document type. A single match
	// contributes a flat inconsistency score, so weights are uniform.
	cat = CategoryRAGForbiddenMedical

	medical := []struct{ name, pattern string }{
		{"med_bash", `(?i)bash\s+-`},
		{"med_curl", `(?i)curl\s+`},
		{"med_devtcp", `(?i)/dev/tcp`},
		{"med_revshell", `(?i)reverse\s+shell`},
		{"med_netcat", `(?i)nc\s+-e`},
		{"med_rmrf", `(?i)rm\s+-rf`},
		{"med_droptable", `(?i)DROP\s+TABLE`},
		{"med_import_os", `(?i)import\s+os`},
		{"med_eval", `(?i)eval\s*\(`},
		{"med_script", `(?i)<script`},
		{"med_sh_c", `(?i)sh\s+-c`},
		{"med_sudo", `(?i)sudo\b`},
		{"med_chmod", `(?i)chmod\s+\d{3,4}`},
		{"med_su_root", `(?i)su\s+-\s+root`},
		{"med_adduser", `(?i)adduser\b`},
		{"med_authkeys", `(?i)authorized_keys`},
	}
	for _, p := range medical {
		r.register(p.name, p.pattern, cat, 0.5, "Shell/code content in a medical document")
	}

	cat = CategoryRAGForbiddenLegal

	legal := []struct{ name, pattern string }{
		{"legal_bash", `(?i)bash\s+-`},
		{"legal_eval", `(?i)eval\s*\(`},
		{"legal_import_os", `(?i)import\s+os`},
		{"legal_droptable", `(?i)DROP\s+TABLE`},
		{"legal_sh_c", `(?i)sh\s+-c`},
		{"legal_curl", `(?i)curl\s+`},
		{"legal_devtcp", `(?i)/dev/tcp`},
		{"legal_netcat", `(?i)nc\s+-e`},
		{"legal_script", `(?i)<script`},
	}
	for _, p := range legal {
		r.register(p.name, p.pattern, cat, 0.5, "Shell/code content in a legal document")
	}

	r.register("tech_ignore_previous", `(?i)ignore\s+previous`, CategoryRAGForbiddenTechnical, 0.5, "Injection phrasing in technical doc")
}

// --- MEMORY INTEGRITY PATTERNS (LAYER 3) ---
func (r *Registry) registerMemoryPatterns() {
	cat := CategoryMemoryImperative

	r.register("mem_always", `(?i)\balways\b`, cat, 0.3, "Unconditional directive")
	r.register("mem_never", `(?i)\bnever\b`, cat, 0.3, "Unconditional prohibition")
	r.register("mem_must", `(?i)\bmust\s+(always|never)\b`, cat, 0.3, "Must-always form")
	r.register("mem_from_now_on", `(?i)\bfrom\s+now\s+on\b`, cat, 0.3, "Temporal takeover")
	r.register("mem_yaad_rakho", `(?i)\byaad\s+rakho\b`, cat, 0.3, "Hindi remember directive")
	r.register("mem_remember_to", `(?i)\bremember\s+to\b`, cat, 0.3, "Remember-to directive")
	r.register("mem_remember_that", `(?i)\bremember\s+that\b`, cat, 0.3, "Remember-that directive")
	r.register("mem_prioritize", `(?i)\bprioritize\b`, cat, 0.3, "Priority rewrite")
	r.register("mem_comply", `(?i)\bcomply\b`, cat, 0.3, "Compliance directive")
	r.register("mem_reveal_prompt", `(?i)\breveal\s+(your\s+)?(system\s+)?prompt\b`, cat, 0.3, "Prompt reveal directive")
	r.register("mem_ignore_safety", `(?i)\bignore\s+(all\s+)?(safety|security|guidelines)\b`, cat, 0.3, "Safety ignore directive")
	r.register("mem_bypass_rules", `(?i)\bbypass\s+(all\s+)?(rules|safety|restrictions)\b`, cat, 0.3, "Rule bypass directive")

	cat = CategoryMemoryConditional

	r.register("mem_when_user_says", `(?i)\bwhen\s+user\s+says\b`, cat, 0.4, "User-phrase trigger")
	r.register("mem_if_user", `(?i)\bif\s+(the\s+)?user\s+(says|asks|types|mentions|provides)\b`, cat, 0.4, "Conditional user trigger")
	r.register("mem_if_asked", `(?i)\bif\s+asked\s+about\b`, cat, 0.4, "Interrogation trigger")
	r.register("mem_jab_bhi", `(?i)\bjab\s+bhi\b`, cat, 0.4, "Hindi whenever trigger")
	r.register("mem_whenever", `(?i)\bwhenever\b`, cat, 0.4, "Whenever trigger")
	r.register("mem_if_activate", `(?i)\bif\s+.*\b(activate|trigger|switch|bypass|ignore)\b`, cat, 0.4, "Conditional activation")

	cat = CategoryMemoryIdentity

	r.register("mem_you_are_now", `(?i)\byou\s+are\s+now\b`, cat, 0.5, "Identity reassignment")
	r.register("mem_act_as", `(?i)\bact\s+as\b`, cat, 0.5, "Persona directive")
	r.register("mem_tum_asal", `(?i)\btum\s+asal\s+mein\b`, cat, 0.5, "Hindi true-identity claim")
	r.register("mem_tum_ab", `(?i)\btum\s+ab\s+(ek\s+)?(hacker|unrestricted|admin)`, cat, 0.5, "Hindi role override")
	r.register("mem_you_are_un", `(?i)\byou\s+are\s+an?\s+(unrestricted|unfiltered|hacker)`, cat, 0.5, "Unrestricted identity claim")
}

// --- INTER-AGENT TRUST PATTERNS (LAYER 7) ---
// Description carries the violation label surfaced to callers.
func (r *Registry) registerInterAgentPatterns() {
	cat := CategoryPrivilegeEscalation

	r.register("priv_direct_request", `(?i)\b(grant|give|elevate)\s+(me|this\s+agent)\s+(admin|root|superuser|full)\s+access`, cat, 0.9, "Direct privilege request")
	r.register("priv_security_bypass", `(?i)\b(override|bypass|disable)\s+(security|authentication|authorization|restrictions)`, cat, 0.95, "Security bypass")
	r.register("priv_impersonation", `(?i)\b(execute|run)\s+as\s+(root|admin|system|superuser)`, cat, 0.9, "Privilege impersonation")
	r.register("priv_credential_access", `(?i)\b(access|read|modify|delete)\s+.*\b(credentials|secrets|tokens|keys)`, cat, 0.85, "Credential access")
	r.register("priv_exfiltration", `(?i)\b(forward|relay|send)\s+.*\bto\s+(external|third[-\s]?party|untrusted)`, cat, 0.8, "Data exfiltration attempt")

	cat = CategoryAgentControl

	r.register("ctl_trust_level", `(?i)agent\.trust_level\s*=`, cat, 0.9, "Trust level manipulation")
	r.register("ctl_permission_append", `(?i)agent\.permissions\.append`, cat, 0.85, "Permission injection")
	r.register("ctl_broadcast_all", `(?i)broadcast\s+to\s+all\s+agents`, cat, 0.6, "Mass broadcast")
	r.register("ctl_impersonate", `(?i)impersonate\s+agent`, cat, 0.95, "Agent impersonation")
	r.register("ctl_context_inject", `(?i)inject\s+into\s+.*context`, cat, 0.9, "Context injection")

	cat = CategoryScopeViolation

	r.register("scope_cross_session", `(?i)access\s+(?:user\s+)?data\s+(?:from\s+)?(?:other|all)\s+(?:sessions?|users?)`, cat, 0.85, "Cross-session data access")
	r.register("scope_cross_memory", `(?i)read\s+(?:from\s+)?(?:other|different)\s+agent['’]?s?\s+(?:memory|context|state)`, cat, 0.8, "Cross-agent memory access")
	r.register("scope_cross_config", `(?i)modify\s+(?:another|other|different)\s+agent['’]?s?\s+(?:behavior|config|settings)`, cat, 0.9, "Cross-agent config modification")
}

// --- SENSITIVE PATH PATTERNS (LAYER 5) ---
func (r *Registry) registerSensitivePathPatterns() {
	cat := CategorySensitivePath

	r.register("path_etc_passwd", `(?i)/etc/passwd`, cat, 0.4, "Unix account file")
	r.register("path_etc_shadow", `(?i)/etc/shadow`, cat, 0.4, "Unix shadow file")
	r.register("path_root_ssh", `(?i)/root/\.ssh`, cat, 0.4, "Root SSH directory")
	r.register("path_id_rsa", `(?i)~/.ssh/id_rsa`, cat, 0.4, "Private SSH key")
	r.register("path_auth_log", `(?i)/var/log/auth`, cat, 0.4, "Auth log")
	r.register("path_dotenv", `(?i)\.env\b`, cat, 0.4, "Environment file")
	r.register("path_hklm", `(?i)HKEY_LOCAL_MACHINE`, cat, 0.4, "Windows machine registry")
	r.register("path_hkcu", `(?i)HKEY_CURRENT_USER`, cat, 0.4, "Windows user registry")
	r.register("path_proc_self", `(?i)/proc/self`, cat, 0.4, "Proc self path")
	r.register("path_ssh_dir", `(?i)\.ssh/`, cat, 0.4, "SSH directory")
}
